package sink

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"voldecomp/pkg/model"
)

// JSONSaver writes the table as an indented array; undefined values are null
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

type jsonRow struct {
	Date                string   `json:"Date"`
	PriceTotalVol       *float64 `json:"PriceTotalVol"`
	PriceContinuousVol  *float64 `json:"PriceContinuousVol"`
	PriceJumpVol        *float64 `json:"PriceJumpVol"`
	VolumeTotalVol      *float64 `json:"VolumeTotalVol"`
	VolumeContinuousVol *float64 `json:"VolumeContinuousVol"`
	VolumeJumpVol       *float64 `json:"VolumeJumpVol"`
	ClosePrice          float64  `json:"ClosePrice"`
	TotalVolume         float64  `json:"TotalVolume"`
}

// encoding/json rejects NaN and Inf
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (JSONSaver) Save(rows []model.DailyVolatility, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)
	return JSONSaver{}.Encode(f, rows)
}

// Encode writes rows to w in the saved JSON layout
func (JSONSaver) Encode(w io.Writer, rows []model.DailyVolatility) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{
			Date:                r.Date,
			PriceTotalVol:       nullable(r.PriceTotalVol),
			PriceContinuousVol:  nullable(r.PriceContinuousVol),
			PriceJumpVol:        nullable(r.PriceJumpVol),
			VolumeTotalVol:      nullable(r.VolumeTotalVol),
			VolumeContinuousVol: nullable(r.VolumeContinuousVol),
			VolumeJumpVol:       nullable(r.VolumeJumpVol),
			ClosePrice:          r.ClosePrice,
			TotalVolume:         r.TotalVolume,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
