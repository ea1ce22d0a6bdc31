package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AlertLevel is the risk tier of a monitored item
type AlertLevel string

const (
	AlertRed    AlertLevel = "red"
	AlertYellow AlertLevel = "yellow"
	AlertGreen  AlertLevel = "green"
)

// AllAlertLevels lists the known levels in severity order
var AllAlertLevels = []AlertLevel{AlertRed, AlertYellow, AlertGreen}

// Rank orders levels by severity: red 0, yellow 1, green 2, anything else 3.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertRed:
		return 0
	case AlertYellow:
		return 1
	case AlertGreen:
		return 2
	default:
		return 3
	}
}

// Label returns the display label for the level
func (l AlertLevel) Label() string {
	switch l {
	case AlertRed:
		return "CRITICAL"
	case AlertYellow:
		return "WARNING"
	case AlertGreen:
		return "STABLE"
	default:
		return string(l)
	}
}

// Trend is the direction of a price or indicator
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Normalize maps unknown trends to stable
func (t Trend) Normalize() Trend {
	switch t {
	case TrendUp, TrendDown:
		return t
	default:
		return TrendStable
	}
}

// Symbol returns the arrow glyph used for the trend
func (t Trend) Symbol() string {
	switch t.Normalize() {
	case TrendUp:
		return "▲"
	case TrendDown:
		return "▼"
	default:
		return "▬"
	}
}

// Item is a monitored node or commodity
type Item struct {
	ID                int             `json:"id" validate:"required,gt=0"`
	Name              string          `json:"name" validate:"required"`
	Category          string          `json:"category" validate:"required"`
	Inventory         float64         `json:"inventory"`
	LeadTime          float64         `json:"leadTime"`
	PriceYoY          float64         `json:"priceYoY"`
	Utilization       float64         `json:"utilization"`
	AlertLevel        AlertLevel      `json:"alertLevel,omitempty" validate:"omitempty,oneof=red yellow green"`
	PriceData         *PriceData      `json:"priceData,omitempty"`
	LeadingIndicators []ItemIndicator `json:"leadingIndicators,omitempty" validate:"dive"`
}

// HasPriceData reports whether the item can be charted
func (i Item) HasPriceData() bool {
	return i.PriceData != nil
}

// PriceData carries the commodity price block of an item
type PriceData struct {
	Current float64   `json:"current"`
	Unit    string    `json:"unit"`
	Trend   Trend     `json:"trend"`
	History []float64 `json:"history"`
}

// ItemIndicator is a per-item leading indicator shown in the detail view
type ItemIndicator struct {
	Name   string         `json:"name" validate:"required"`
	Value  IndicatorValue `json:"value"`
	Status string         `json:"status"`
}

// IndicatorValue holds an indicator reading that may be published either as a
// number or as free text. It keeps the original text for display.
type IndicatorValue struct {
	Text     string
	Number   float64
	IsNumber bool
}

// NumberValue builds a numeric IndicatorValue
func NumberValue(v float64) IndicatorValue {
	return IndicatorValue{Text: strconv.FormatFloat(v, 'f', -1, 64), Number: v, IsNumber: true}
}

// TextValue builds a textual IndicatorValue
func TextValue(s string) IndicatorValue {
	return IndicatorValue{Text: s}
}

// String returns the display text
func (v IndicatorValue) String() string {
	return v.Text
}

// UnmarshalJSON accepts a JSON number or string
func (v *IndicatorValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = IndicatorValue{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("indicator value must be a number or string: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("indicator value %q: %w", n.String(), err)
	}
	*v = IndicatorValue{Text: n.String(), Number: f, IsNumber: true}
	return nil
}

// MarshalJSON writes numbers as numbers and everything else as strings
func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return []byte(v.Text), nil
	}
	return json.Marshal(v.Text)
}
