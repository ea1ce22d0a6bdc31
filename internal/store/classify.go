package store

import (
	"github.com/samber/lo"

	"shortwatch/pkg/contracts/domain"
)

// Alert thresholds. An item needs two red triggers to reach red; a single
// yellow trigger is enough for yellow.
const (
	RedInventoryBelow     = 4.0
	RedLeadTimeAtLeast    = 2.0
	RedPriceYoYAtLeast    = 50.0
	RedUtilizationAtLeast = 95.0

	YellowInventoryBelow     = 8.0
	YellowLeadTimeAtLeast    = 1.5
	YellowPriceYoYAtLeast    = 30.0
	YellowUtilizationAtLeast = 85.0

	redTriggersRequired    = 2
	yellowTriggersRequired = 1
)

// ClassifyAlertLevel derives the alert level of an item from its four metrics.
func ClassifyAlertLevel(item domain.Item) domain.AlertLevel {
	if redTriggers(item) >= redTriggersRequired {
		return domain.AlertRed
	}
	if yellowTriggers(item) >= yellowTriggersRequired {
		return domain.AlertYellow
	}
	return domain.AlertGreen
}

func redTriggers(item domain.Item) int {
	return lo.Count([]bool{
		item.Inventory < RedInventoryBelow,
		item.LeadTime >= RedLeadTimeAtLeast,
		item.PriceYoY >= RedPriceYoYAtLeast,
		item.Utilization >= RedUtilizationAtLeast,
	}, true)
}

func yellowTriggers(item domain.Item) int {
	return lo.Count([]bool{
		item.Inventory < YellowInventoryBelow,
		item.LeadTime >= YellowLeadTimeAtLeast,
		item.PriceYoY >= YellowPriceYoYAtLeast,
		item.Utilization >= YellowUtilizationAtLeast,
	}, true)
}

// EffectiveAlertLevel returns the published alert level when the snapshot
// carries one, otherwise the classified level. Published levels are trusted
// as-is even when they disagree with ClassifyAlertLevel.
func EffectiveAlertLevel(item domain.Item) domain.AlertLevel {
	if item.AlertLevel != "" {
		return item.AlertLevel
	}
	return ClassifyAlertLevel(item)
}

// Divergence describes an item whose published level disagrees with the rule
type Divergence struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Published  domain.AlertLevel `json:"published"`
	Classified domain.AlertLevel `json:"classified"`
}

// AlertDivergence lists items whose published alert level differs from the
// classified one. Items without a published level never diverge.
func AlertDivergence(items []domain.Item) []Divergence {
	var out []Divergence
	for _, item := range items {
		if item.AlertLevel == "" {
			continue
		}
		if classified := ClassifyAlertLevel(item); classified != item.AlertLevel {
			out = append(out, Divergence{
				ID:         item.ID,
				Name:       item.Name,
				Published:  item.AlertLevel,
				Classified: classified,
			})
		}
	}
	return out
}

// Summarize counts items per effective alert level
func Summarize(items []domain.Item) domain.Summary {
	var s domain.Summary
	for _, item := range items {
		s.Add(EffectiveAlertLevel(item))
	}
	return s
}

// Metric names a single item measure that has its own colour scale
type Metric string

const (
	MetricInventory   Metric = "inventory"
	MetricLeadTime    Metric = "leadTime"
	MetricPriceYoY    Metric = "priceYoY"
	MetricUtilization Metric = "utilization"
)

// ColorCode grades a single metric value with the same thresholds the alert
// rule uses. Callers pass |priceYoY| for price changes.
func ColorCode(value float64, metric Metric) domain.AlertLevel {
	switch metric {
	case MetricInventory:
		if value < RedInventoryBelow {
			return domain.AlertRed
		}
		if value < YellowInventoryBelow {
			return domain.AlertYellow
		}
	case MetricLeadTime:
		if value >= RedLeadTimeAtLeast {
			return domain.AlertRed
		}
		if value >= YellowLeadTimeAtLeast {
			return domain.AlertYellow
		}
	case MetricPriceYoY:
		if value >= RedPriceYoYAtLeast {
			return domain.AlertRed
		}
		if value >= YellowPriceYoYAtLeast {
			return domain.AlertYellow
		}
	case MetricUtilization:
		if value >= RedUtilizationAtLeast {
			return domain.AlertRed
		}
		if value >= YellowUtilizationAtLeast {
			return domain.AlertYellow
		}
	}
	return domain.AlertGreen
}
