package sink

import (
	"github.com/parquet-go/parquet-go"

	"voldecomp/pkg/model"
)

// ParquetSaver writes the table as a Snappy-compressed Parquet file
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []model.DailyVolatility, path string) error {
	return parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy))
}
