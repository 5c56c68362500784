package sink

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"voldecomp/pkg/model"
)

// CSVSaver writes the table with the fixed Date..TotalVolume header.
// Undefined estimator values are written as NaN.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []model.DailyVolatility, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(model.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(Record(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Record renders a row in column order
func Record(r model.DailyVolatility) []string {
	return []string{
		r.Date,
		floatStr(r.PriceTotalVol),
		floatStr(r.PriceContinuousVol),
		floatStr(r.PriceJumpVol),
		floatStr(r.VolumeTotalVol),
		floatStr(r.VolumeContinuousVol),
		floatStr(r.VolumeJumpVol),
		floatStr(r.ClosePrice),
		floatStr(r.TotalVolume),
	}
}

func floatStr(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
