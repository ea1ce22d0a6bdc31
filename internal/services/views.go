package services

import (
	"fmt"
	"strconv"
	"time"

	"shortwatch/internal/series"
	"shortwatch/internal/store"
	"shortwatch/pkg/contracts/domain"
)

// Cell is a formatted table value with its colour code. An empty tone means
// neutral.
type Cell struct {
	Text string            `json:"text"`
	Tone domain.AlertLevel `json:"tone,omitempty"`
}

// RowCells holds the formatted metric cells of a table row
type RowCells struct {
	Inventory   Cell `json:"inventory"`
	LeadTime    Cell `json:"leadTime"`
	PriceYoY    Cell `json:"priceYoY"`
	Utilization Cell `json:"utilization"`
}

// ItemRow is one line of the monitoring table
type ItemRow struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Inventory   float64           `json:"inventory"`
	LeadTime    float64           `json:"leadTime"`
	PriceYoY    float64           `json:"priceYoY"`
	Utilization float64           `json:"utilization"`
	AlertLevel  domain.AlertLevel `json:"alertLevel"`
	AlertLabel  string            `json:"alertLabel"`
	AlertMark   string            `json:"alertMark"`
	Cells       RowCells          `json:"cells"`
}

// ItemList is the answer to a table query. Count is the number of rows after
// filtering, Total the size of the dataset.
type ItemList struct {
	Items []ItemRow       `json:"items"`
	Count int             `json:"count"`
	Total int             `json:"total"`
	Query store.ItemQuery `json:"query"`
}

// PriceInfo is the price panel shown next to a chart and in the detail view
type PriceInfo struct {
	Current    string       `json:"current"`
	Value      float64      `json:"value"`
	Unit       string       `json:"unit"`
	Change     string       `json:"change"`
	ChangeUp   bool         `json:"changeUp"`
	Trend      domain.Trend `json:"trend"`
	TrendLabel string       `json:"trendLabel"`
}

// IndicatorView is an item-level indicator ready for display
type IndicatorView struct {
	Name   string            `json:"name"`
	Value  string            `json:"value"`
	Status string            `json:"status"`
	Tone   domain.AlertLevel `json:"tone,omitempty"`
}

// ItemDetail is the detail view of one item
type ItemDetail struct {
	ItemRow
	Price             *PriceInfo      `json:"price,omitempty"`
	History           []float64       `json:"history,omitempty"`
	LeadingIndicators []IndicatorView `json:"leadingIndicators"`
}

// Chart is a price series resampled for a display window
type Chart struct {
	ItemID    int          `json:"itemId"`
	Name      string       `json:"name"`
	Period    int          `json:"period"`
	Labels    []string     `json:"labels"`
	Values    []float64    `json:"values"`
	Tone      series.Tone  `json:"tone"`
	Warning   bool         `json:"warning"`
	LineColor string       `json:"lineColor"`
	FillColor string       `json:"fillColor"`
	Stats     series.Stats `json:"stats"`
	Price     PriceInfo    `json:"price"`
}

// CommodityOption is an entry of the chart item selector
type CommodityOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Overview is the dashboard header: timestamp, alert cards and selectors
type Overview struct {
	LastUpdated      string             `json:"lastUpdated"`
	Summary          domain.Summary     `json:"summary"`
	PublishedSummary domain.Summary     `json:"publishedSummary"`
	Categories       []string           `json:"categories"`
	Commodities      []CommodityOption  `json:"commodities"`
	Divergences      []store.Divergence `json:"divergences"`
	Fingerprint      string             `json:"fingerprint"`
}

// ChainView is an interdependency chain card
type ChainView struct {
	domain.Chain
	StatusLabel string `json:"statusLabel"`
}

// LeadingIndicatorView is a dashboard-wide indicator card
type LeadingIndicatorView struct {
	domain.LeadingIndicator
	TrendSymbol string `json:"trendSymbol"`
}

// LoadStatus describes the most recent load attempt
type LoadStatus struct {
	Loaded      bool       `json:"loaded"`
	Source      string     `json:"source"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	LoadedAt    *time.Time `json:"loadedAt,omitempty"`
	Items       int        `json:"items"`
	Error       string     `json:"error,omitempty"`
}

var alertMarks = map[domain.AlertLevel]string{
	domain.AlertRed:    "!",
	domain.AlertYellow: "!",
	domain.AlertGreen:  "✓",
}

var trendLabels = map[domain.Trend]string{
	domain.TrendUp:     "상승",
	domain.TrendDown:   "하락",
	domain.TrendStable: "보합",
}

// TrendLabel returns the arrow and word for a price trend. Unknown trends
// read as stable.
func TrendLabel(t domain.Trend) string {
	t = t.Normalize()
	return t.Symbol() + " " + trendLabels[t]
}

func newItemRow(item domain.Item) ItemRow {
	level := store.EffectiveAlertLevel(item)
	return ItemRow{
		ID:          item.ID,
		Name:        item.Name,
		Category:    item.Category,
		Inventory:   item.Inventory,
		LeadTime:    item.LeadTime,
		PriceYoY:    item.PriceYoY,
		Utilization: item.Utilization,
		AlertLevel:  level,
		AlertLabel:  level.Label(),
		AlertMark:   alertMarks[level],
		Cells: RowCells{
			Inventory: Cell{
				Text: formatNumber(item.Inventory),
				Tone: store.ColorCode(item.Inventory, store.MetricInventory),
			},
			LeadTime: Cell{
				Text: fmt.Sprintf("%.1fx", item.LeadTime),
				Tone: store.ColorCode(item.LeadTime, store.MetricLeadTime),
			},
			PriceYoY: Cell{
				Text: signedPercent(item.PriceYoY),
				Tone: yoyTone(item.PriceYoY),
			},
			Utilization: Cell{
				Text: formatNumber(item.Utilization) + "%",
				Tone: store.ColorCode(item.Utilization, store.MetricUtilization),
			},
		},
	}
}

func newPriceInfo(item domain.Item) PriceInfo {
	p := item.PriceData
	return PriceInfo{
		Current:    store.FormatPrice(p.Current, p.Unit),
		Value:      p.Current,
		Unit:       p.Unit,
		Change:     store.FormatPercentChange(item.PriceYoY),
		ChangeUp:   item.PriceYoY >= 0,
		Trend:      p.Trend.Normalize(),
		TrendLabel: TrendLabel(p.Trend),
	}
}

func newItemDetail(item domain.Item) ItemDetail {
	detail := ItemDetail{
		ItemRow:           newItemRow(item),
		LeadingIndicators: make([]IndicatorView, 0, len(item.LeadingIndicators)),
	}
	if item.PriceData != nil {
		price := newPriceInfo(item)
		detail.Price = &price
		detail.History = item.PriceData.History
	}
	for _, ind := range item.LeadingIndicators {
		detail.LeadingIndicators = append(detail.LeadingIndicators, IndicatorView{
			Name:   ind.Name,
			Value:  ind.Value.String(),
			Status: ind.Status,
			Tone:   statusTone(ind.Status),
		})
	}
	return detail
}

// yoyTone colours any price increase as a risk
func yoyTone(v float64) domain.AlertLevel {
	if v >= 0 {
		return domain.AlertRed
	}
	return domain.AlertGreen
}

func statusTone(status string) domain.AlertLevel {
	switch status {
	case "critical":
		return domain.AlertRed
	case "warning":
		return domain.AlertYellow
	default:
		return ""
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// signedPercent prefixes non-negative values with "+"
func signedPercent(v float64) string {
	if v == 0 {
		return "+0%"
	}
	text := formatNumber(v) + "%"
	if v > 0 {
		return "+" + text
	}
	return text
}
