// Package series turns a commodity's price history into the fixed-length
// series and axis labels drawn by the price chart.
package series

import (
	"fmt"
	"math"
	"time"
)

// Resampler builds chart series relative to "today" as given by its clock
type Resampler struct {
	now func() time.Time
	loc *time.Location
}

// NewResampler creates a resampler. A nil clock means time.Now and a nil
// location means time.Local.
func NewResampler(now func() time.Time, loc *time.Location) *Resampler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resampler{now: now, loc: loc}
}

// GenerateLabels returns periodDays labels for the calendar days ending today,
// oldest first. Up to 30 days every day is labelled "M/D". Up to 90 days only
// days whose distance from today is a multiple of 7 are labelled. Longer
// windows label every 30th day as "YYYY.MM". Unlabelled days are "".
func (r *Resampler) GenerateLabels(periodDays int) []string {
	if periodDays <= 0 {
		return []string{}
	}
	today := r.now().In(r.loc)
	labels := make([]string, 0, periodDays)
	for offset := periodDays - 1; offset >= 0; offset-- {
		day := time.Date(today.Year(), today.Month(), today.Day()-offset, 12, 0, 0, 0, r.loc)
		labels = append(labels, label(day, offset, periodDays))
	}
	return labels
}

func label(day time.Time, offset, periodDays int) string {
	switch {
	case periodDays <= 30:
		return fmt.Sprintf("%d/%d", int(day.Month()), day.Day())
	case periodDays <= 90:
		if offset%7 == 0 {
			return fmt.Sprintf("%d/%d", int(day.Month()), day.Day())
		}
	default:
		if offset%30 == 0 {
			return fmt.Sprintf("%d.%02d", day.Year(), int(day.Month()))
		}
	}
	return ""
}

// Resample stretches or shrinks history to targetLength points by linear
// interpolation between the two nearest samples. Positions that land on a
// sample, or past the last one, take that sample as is; interpolated values
// are rounded to two decimals. A targetLength of 1 yields the first sample.
func Resample(history []float64, targetLength int) []float64 {
	if len(history) == 0 || targetLength <= 0 {
		return []float64{}
	}
	if targetLength == 1 {
		return []float64{history[0]}
	}

	out := make([]float64, targetLength)
	step := float64(len(history)-1) / float64(targetLength-1)
	for i := range out {
		pos := float64(i) * step
		lower := int(math.Floor(pos))
		upper := int(math.Ceil(pos))
		if lower == upper || upper >= len(history) {
			out[i] = history[lower]
			continue
		}
		frac := pos - float64(lower)
		out[i] = round2(history[lower] + (history[upper]-history[lower])*frac)
	}
	return out
}

// round2 rounds half up to two decimals
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Resample is a convenience for the package-level Resample
func (r *Resampler) Resample(history []float64, targetLength int) []float64 {
	return Resample(history, targetLength)
}
