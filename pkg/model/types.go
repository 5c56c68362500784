package model

import "time"

// Observation is one intraday bar from a per-symbol minute file
type Observation struct {
	Date   string  `json:"date"`   // calendar date key, kept as it appears in the input
	Time   int     `json:"time"`   // minute-of-day marker (HHMM or minutes since midnight)
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// DailyVolatility is one output row of the decomposition.
// Estimator fields hold NaN when the value is undefined for that day.
type DailyVolatility struct {
	Date                string  `json:"date" parquet:"Date"`
	PriceTotalVol       float64 `json:"price_total_vol" parquet:"PriceTotalVol"`
	PriceContinuousVol  float64 `json:"price_continuous_vol" parquet:"PriceContinuousVol"`
	PriceJumpVol        float64 `json:"price_jump_vol" parquet:"PriceJumpVol"`
	VolumeTotalVol      float64 `json:"volume_total_vol" parquet:"VolumeTotalVol"`
	VolumeContinuousVol float64 `json:"volume_continuous_vol" parquet:"VolumeContinuousVol"`
	VolumeJumpVol       float64 `json:"volume_jump_vol" parquet:"VolumeJumpVol"`
	ClosePrice          float64 `json:"close_price" parquet:"ClosePrice"`
	TotalVolume         float64 `json:"total_volume" parquet:"TotalVolume"`
}

// Columns is the fixed output header, in file order
var Columns = []string{
	"Date",
	"PriceTotalVol", "PriceContinuousVol", "PriceJumpVol",
	"VolumeTotalVol", "VolumeContinuousVol", "VolumeJumpVol",
	"ClosePrice", "TotalVolume",
}

// Status is the outcome of processing one symbol
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// SymbolResult reports what happened to one symbol in a batch
type SymbolResult struct {
	Symbol     string        `json:"symbol"`
	Status     Status        `json:"status"`
	Rows       int           `json:"rows"`
	OutputPath string        `json:"output_path,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// Reason returns a short human-readable cause for skipped or failed symbols
func (r SymbolResult) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

// BatchResult is the summary of one batch run
type BatchResult struct {
	RunID    string         `json:"run_id"`
	Total    int            `json:"total"`
	Saved    int            `json:"saved"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []SymbolResult `json:"results"`
	Duration time.Duration  `json:"duration"`
}
