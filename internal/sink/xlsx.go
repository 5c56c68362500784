package sink

import (
	"math"
	"os"

	"github.com/xuri/excelize/v2"

	"voldecomp/pkg/model"
)

const xlsxSheet = "Sheet1"

// XLSXSaver writes the table to the first sheet of a workbook.
// Undefined values are written as the text NaN.
type XLSXSaver struct{}

func (XLSXSaver) Extension() string { return "xlsx" }

func (XLSXSaver) Save(rows []model.DailyVolatility, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	header := make([]any, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Date,
			cellValue(r.PriceTotalVol),
			cellValue(r.PriceContinuousVol),
			cellValue(r.PriceJumpVol),
			cellValue(r.VolumeTotalVol),
			cellValue(r.VolumeContinuousVol),
			cellValue(r.VolumeJumpVol),
			cellValue(r.ClosePrice),
			cellValue(r.TotalVolume),
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return err
		}
	}

	// SaveAs insists on a workbook extension, which temp paths lack
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(out, &err)
	return f.Write(out)
}

func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return v
}
