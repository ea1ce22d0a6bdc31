package series

// Tone is the visual reading of a price series. Rising prices are the risk
// signal, so a rising series is drawn in the warning colour.
type Tone string

const (
	ToneRising  Tone = "rising"
	ToneFalling Tone = "falling"
	ToneFlat    Tone = "flat"
)

// Chart colours
const (
	ColorNegative     = "#f85149"
	ColorNegativeFill = "rgba(248, 81, 73, 0.1)"
	ColorPositive     = "#3fb950"
	ColorPositiveFill = "rgba(63, 185, 80, 0.1)"
	ColorPrimary      = "#58a6ff"
	ColorPrimaryFill  = "rgba(88, 166, 255, 0.1)"
)

// TrendTone compares the last point of series with the first. A series that
// ends at or above its start is rising; an empty series is flat.
func TrendTone(series []float64) Tone {
	if len(series) == 0 {
		return ToneFlat
	}
	if series[len(series)-1] >= series[0] {
		return ToneRising
	}
	return ToneFalling
}

// Warning reports whether the tone should be rendered as a risk
func (t Tone) Warning() bool {
	return t == ToneRising
}

// LineColor returns the stroke colour for the tone
func (t Tone) LineColor() string {
	switch t {
	case ToneRising:
		return ColorNegative
	case ToneFalling:
		return ColorPositive
	default:
		return ColorPrimary
	}
}

// FillColor returns the area fill colour for the tone
func (t Tone) FillColor() string {
	switch t {
	case ToneRising:
		return ColorNegativeFill
	case ToneFalling:
		return ColorPositiveFill
	default:
		return ColorPrimaryFill
	}
}
