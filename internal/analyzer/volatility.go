package analyzer

import (
	"math"

	"voldecomp/pkg/model"
)

// SampleInterval is the grid, in minutes, that intraday bars are filtered to
const SampleInterval = 5

// bipowerScale is (sqrt(pi/2))^-2, i.e. 2/pi
var bipowerScale = math.Pow(math.Sqrt(math.Pi/2), -2)

// Undefined marks an estimator value that could not be computed for a day
var Undefined = math.NaN()

// IsDefined reports whether v is a usable estimator value
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

// FiveMinuteSample keeps the bars whose minute marker is a multiple of
// SampleInterval. Missing marks are not synthesized.
func FiveMinuteSample(day []model.Observation) (prices, volumes []float64) {
	prices = make([]float64, 0, len(day)/SampleInterval+1)
	volumes = make([]float64, 0, len(day)/SampleInterval+1)
	for _, o := range day {
		if o.Time%SampleInterval == 0 {
			prices = append(prices, o.Close)
			volumes = append(volumes, o.Volume)
		}
	}
	return prices, volumes
}

// LogReturns returns ln(p[i+1]/p[i]) for consecutive prices.
// Non-positive prices yield NaN or infinite elements rather than failing.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := range returns {
		returns[i] = math.Log(prices[i+1] / prices[i])
	}
	return returns
}

// StandardizedVolumeDeltas converts volumes to turnover (volume / shares
// outstanding) and returns the first differences. If shares is not a finite
// positive number every delta is Undefined.
func StandardizedVolumeDeltas(volumes []float64, sharesOutstanding float64) []float64 {
	if len(volumes) < 2 {
		return []float64{}
	}
	deltas := make([]float64, len(volumes)-1)
	if !(sharesOutstanding > 0) || math.IsInf(sharesOutstanding, 0) {
		for i := range deltas {
			deltas[i] = Undefined
		}
		return deltas
	}
	for i := range deltas {
		deltas[i] = volumes[i+1]/sharesOutstanding - volumes[i]/sharesOutstanding
	}
	return deltas
}

// RealizedVariation is the log of the sum of squares of x, excluding x[0]
func RealizedVariation(x []float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += x[i] * x[i]
	}
	return logOrUndefined(sum)
}

// BipowerVariation is the log of 2/pi times the sum of |x[i]|*|x[i-1]| for
// i >= 2. The first element never takes part, so fewer than three elements
// always give Undefined.
func BipowerVariation(x []float64) float64 {
	var sum float64
	for i := 2; i < len(x); i++ {
		sum += math.Abs(x[i]) * math.Abs(x[i-1])
	}
	return logOrUndefined(bipowerScale * sum)
}

// JumpComponent is rv - bv when both are defined, Undefined otherwise
func JumpComponent(rv, bv float64) float64 {
	if !IsDefined(rv) || !IsDefined(bv) {
		return Undefined
	}
	return rv - bv
}

func logOrUndefined(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return Undefined
	}
	return math.Log(v)
}

// DailyRow computes the decomposition for one trading day.
// ClosePrice is the last bar of the day, sampled or not; TotalVolume only
// counts the five-minute bars.
func DailyRow(day []model.Observation, sharesOutstanding float64) model.DailyVolatility {
	if len(day) == 0 {
		return model.DailyVolatility{
			PriceTotalVol:       Undefined,
			PriceContinuousVol:  Undefined,
			PriceJumpVol:        Undefined,
			VolumeTotalVol:      Undefined,
			VolumeContinuousVol: Undefined,
			VolumeJumpVol:       Undefined,
		}
	}

	prices, volumes := FiveMinuteSample(day)

	returns := LogReturns(prices)
	rv := RealizedVariation(returns)
	bv := BipowerVariation(returns)

	deltas := StandardizedVolumeDeltas(volumes, sharesOutstanding)
	vrv := RealizedVariation(deltas)
	vbv := BipowerVariation(deltas)

	var totalVolume float64
	for _, v := range volumes {
		totalVolume += v
	}

	return model.DailyVolatility{
		Date:                day[0].Date,
		PriceTotalVol:       rv,
		PriceContinuousVol:  bv,
		PriceJumpVol:        JumpComponent(rv, bv),
		VolumeTotalVol:      vrv,
		VolumeContinuousVol: vbv,
		VolumeJumpVol:       JumpComponent(vrv, vbv),
		ClosePrice:          day[len(day)-1].Close,
		TotalVolume:         totalVolume,
	}
}

// Decompose produces one row per trading day of obs, in input order
func Decompose(obs []model.Observation, sharesOutstanding float64) []model.DailyVolatility {
	days := SplitDays(obs)
	rows := make([]model.DailyVolatility, 0, len(days))
	for _, day := range days {
		rows = append(rows, DailyRow(day, sharesOutstanding))
	}
	return rows
}
