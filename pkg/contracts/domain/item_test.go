package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLevel_RankAndLabel(t *testing.T) {
	tests := []struct {
		level AlertLevel
		rank  int
		label string
	}{
		{AlertRed, 0, "CRITICAL"},
		{AlertYellow, 1, "WARNING"},
		{AlertGreen, 2, "STABLE"},
		{AlertLevel("purple"), 3, "purple"},
		{AlertLevel(""), 3, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.level.Rank())
			assert.Equal(t, tt.label, tt.level.Label())
		})
	}
}

func TestTrend_Symbol(t *testing.T) {
	assert.Equal(t, "▲", TrendUp.Symbol())
	assert.Equal(t, "▼", TrendDown.Symbol())
	assert.Equal(t, "▬", TrendStable.Symbol())
	assert.Equal(t, "▬", Trend("sideways").Symbol())
	assert.Equal(t, TrendStable, Trend("").Normalize())
}

func TestIndicatorValue_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		isNumber bool
		number   float64
		text     string
		output   string
	}{
		{"integer", `12`, true, 12, "12", `12`},
		{"decimal keeps text", `4.50`, true, 4.5, "4.50", `4.50`},
		{"string", `"tight"`, false, 0, "tight", `"tight"`},
		{"numeric string stays text", `"12"`, false, 0, "12", `"12"`},
		{"null", `null`, false, 0, "", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v IndicatorValue
			require.NoError(t, json.Unmarshal([]byte(tt.input), &v))
			assert.Equal(t, tt.isNumber, v.IsNumber)
			assert.Equal(t, tt.number, v.Number)
			assert.Equal(t, tt.text, v.String())

			out, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.output, string(out))
		})
	}
}

func TestIndicatorValue_RejectsObjects(t *testing.T) {
	var v IndicatorValue
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
}

func TestItem_DecodesSnapshotFields(t *testing.T) {
	raw := `{
		"id": 3, "name": "Neon", "category": "Gases",
		"inventory": 5.5, "leadTime": 1.6, "priceYoY": -12, "utilization": 80,
		"priceData": {"current": 2400, "unit": "$/m3", "trend": "up", "history": [1, 2]},
		"leadingIndicators": [{"name": "Spot", "value": 3.2, "status": "up"}]
	}`

	var item Item
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	assert.Equal(t, 3, item.ID)
	assert.Equal(t, -12.0, item.PriceYoY)
	assert.Equal(t, AlertLevel(""), item.AlertLevel)
	require.True(t, item.HasPriceData())
	assert.Equal(t, []float64{1, 2}, item.PriceData.History)
	assert.Equal(t, NumberValue(3.2), item.LeadingIndicators[0].Value)
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	for _, l := range []AlertLevel{AlertRed, AlertYellow, AlertYellow, AlertGreen, "unknown"} {
		s.Add(l)
	}
	assert.Equal(t, Summary{Red: 1, Yellow: 2, Green: 2, Total: 5}, s)
}

func TestChainStatus_Label(t *testing.T) {
	assert.Equal(t, "CRITICAL", ChainCritical.Label())
	assert.Equal(t, "WARNING", ChainWarning.Label())
	assert.Equal(t, "NORMAL", ChainNormal.Label())
	assert.Equal(t, "NORMAL", ChainStatus("").Label())
}
