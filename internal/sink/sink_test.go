package sink

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"voldecomp/pkg/model"
)

func sampleRows() []model.DailyVolatility {
	nan := math.NaN()
	return []model.DailyVolatility{
		{
			Date: "2024-01-02", PriceTotalVol: -8.5, PriceContinuousVol: -8.75, PriceJumpVol: 0.25,
			VolumeTotalVol: -15.1, VolumeContinuousVol: -15.6, VolumeJumpVol: 0.5,
			ClosePrice: 100, TotalVolume: 5200,
		},
		{
			Date: "2024-01-03", PriceTotalVol: -9, PriceContinuousVol: nan, PriceJumpVol: nan,
			VolumeTotalVol: nan, VolumeContinuousVol: nan, VolumeJumpVol: nan,
			ClosePrice: 101.5, TotalVolume: 1200,
		},
	}
}

func TestNew(t *testing.T) {
	for _, f := range append(Formats, "", " CSV ") {
		s, err := New(f)
		require.NoError(t, err, f)
		require.NotNil(t, s)
	}
	_, err := New("xml")
	assert.Error(t, err)
}

func TestOutputPathAndExists(t *testing.T) {
	dir := t.TempDir()
	path := OutputPath(dir, "AAPL", "csv")
	assert.Equal(t, filepath.Join(dir, "AAPL_values.csv"), path)
	assert.False(t, Exists(path))
	assert.False(t, Exists(dir))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.True(t, Exists(path))
}

func TestCSVSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteAtomic(CSVSaver{}, sampleRows(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, model.Columns, records[0])
	assert.Equal(t, []string{"2024-01-02", "-8.5", "-8.75", "0.25", "-15.1", "-15.6", "0.5", "100", "5200"}, records[1])
	assert.Equal(t, []string{"2024-01-03", "-9", "NaN", "NaN", "NaN", "NaN", "NaN", "101.5", "1200"}, records[2])
}

func TestCSVSaverIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	require.NoError(t, WriteAtomic(CSVSaver{}, sampleRows(), a))
	require.NoError(t, WriteAtomic(CSVSaver{}, sampleRows(), b))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestJSONSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteAtomic(JSONSaver{}, sampleRows(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, -8.5, decoded[0]["PriceTotalVol"])
	assert.Nil(t, decoded[1]["PriceContinuousVol"])
	assert.Equal(t, 101.5, decoded[1]["ClosePrice"])
}

func TestParquetSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, WriteAtomic(ParquetSaver{}, sampleRows(), path))

	rows, err := parquet.ReadFile[model.DailyVolatility](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, 5200.0, rows[0].TotalVolume)
	assert.True(t, math.IsNaN(rows[1].PriceContinuousVol))
}

func TestXLSXSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteAtomic(XLSXSaver{}, sampleRows(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.Columns, rows[0])
	assert.Equal(t, "2024-01-03", rows[2][0])
	assert.Equal(t, "NaN", rows[2][2])
}

type failingSaver struct{}

func (failingSaver) Extension() string { return "csv" }
func (failingSaver) Save(rows []model.DailyVolatility, path string) error {
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		return err
	}
	return errors.New("disk full")
}

func TestWriteAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AAPL_values.csv")

	err := WriteAtomic(failingSaver{}, sampleRows(), path)
	require.Error(t, err)
	assert.False(t, Exists(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file should be removed")
}

func TestWriteAtomicCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Volatility Data", "X_values.csv")
	require.NoError(t, WriteAtomic(CSVSaver{}, sampleRows(), path))
	assert.True(t, Exists(path))
}
