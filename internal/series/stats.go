package series

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises a display series for the chart info panel
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Change float64 `json:"change"`
}

// Describe computes Stats. Change is last minus first. A series shorter than
// two points has zero deviation; an empty one yields zero Stats.
func Describe(series []float64) Stats {
	if len(series) == 0 {
		return Stats{}
	}
	s := Stats{
		Min:    floats.Min(series),
		Max:    floats.Max(series),
		Mean:   stat.Mean(series, nil),
		Change: series[len(series)-1] - series[0],
	}
	if len(series) > 1 {
		s.StdDev = stat.StdDev(series, nil)
	}
	return s
}
