package testutil

import (
	"shortwatch/pkg/contracts/domain"
)

// SampleLastUpdated is the timestamp carried by SampleDataset
const SampleLastUpdated = "2026-10-16 09:00 KST"

// SampleDataset returns a fresh copy of the eight-item dataset that also ships
// as data/master-dashboard.json. Item 7 (Gallium) is published as yellow while
// the alert rule classifies it red.
func SampleDataset() *domain.Dataset {
	return &domain.Dataset{
		LastUpdated: SampleLastUpdated,
		Summary:     domain.Summary{Red: 2, Yellow: 4, Green: 2, Total: 8},
		Categories: []string{
			"Semiconductors", "Specialty Gases", "Battery Materials",
			"Grid Equipment", "Base Metals", "Critical Minerals",
		},
		Items: SampleItems(),
		InterdependencyChains: []domain.Chain{
			{
				Name:            "Memory fabrication",
				Status:          domain.ChainCritical,
				Nodes:           []string{"Neon Gas", "Lithography", "Wafer Fab", "HBM Memory"},
				MonitoringPoint: "Neon inventory below six weeks",
			},
			{
				Name:            "Grid buildout",
				Status:          domain.ChainWarning,
				Nodes:           []string{"Copper Cathode", "Power Transformer", "Substation"},
				MonitoringPoint: "Transformer lead time",
			},
			{
				Name:            "EV battery",
				Status:          domain.ChainNormal,
				Nodes:           []string{"Lithium Carbonate", "Cathode", "Cell"},
				MonitoringPoint: "Lithium spot price",
			},
		},
		LeadingIndicators: []domain.LeadingIndicator{
			{Name: "Semiconductor book-to-bill", Value: 1.18, Unit: "ratio", Trend: domain.TrendUp, Status: "warning", Threshold: 1.1, Source: "SEMI"},
			{Name: "Baltic Dry Index", Value: 1420, Unit: "pt", Trend: domain.TrendDown, Status: "normal", Threshold: 2000, Source: "Baltic Exchange"},
			{Name: "LME copper stocks", Value: 98000, Unit: "t", Trend: domain.TrendDown, Status: "critical", Threshold: 120000, Source: "LME"},
		},
	}
}

// SampleItems returns the items of SampleDataset
func SampleItems() []domain.Item {
	return []domain.Item{
		{
			ID: 1, Name: "HBM Memory", Category: "Semiconductors",
			Inventory: 3.2, LeadTime: 2.4, PriceYoY: 62, Utilization: 97,
			AlertLevel: domain.AlertRed,
			PriceData: &domain.PriceData{
				Current: 18.5, Unit: "$/GB", Trend: domain.TrendUp,
				History: []float64{10.2, 10.8, 11.5, 12.1, 12.9, 13.6, 14.4, 15.2, 16.0, 16.9, 17.7, 18.5},
			},
			LeadingIndicators: []domain.ItemIndicator{
				{Name: "DRAM contract price", Value: domain.NumberValue(4.2), Status: "up"},
				{Name: "Allocation", Value: domain.TextValue("tight"), Status: "warning"},
			},
		},
		{
			ID: 2, Name: "Neon Gas", Category: "Specialty Gases",
			Inventory: 5.5, LeadTime: 1.6, PriceYoY: 35, Utilization: 80,
			PriceData: &domain.PriceData{
				Current: 2400, Unit: "$/m3", Trend: domain.TrendUp,
				History: []float64{1780, 1820, 1905, 1990, 2040, 2110, 2200, 2260, 2330, 2400},
			},
		},
		{
			ID: 3, Name: "Lithium Carbonate", Category: "Battery Materials",
			Inventory: 12, LeadTime: 1.1, PriceYoY: -42, Utilization: 70,
			AlertLevel: domain.AlertGreen,
			PriceData: &domain.PriceData{
				Current: 10500, Unit: "$/t", Trend: domain.TrendDown,
				History: []float64{18100, 17200, 16500, 15400, 14600, 13800, 13100, 12400, 11800, 11200, 10800, 10500},
			},
		},
		{
			ID: 4, Name: "Power Transformer", Category: "Grid Equipment",
			Inventory: 2.1, LeadTime: 3.0, PriceYoY: 18, Utilization: 88,
		},
		{
			ID: 5, Name: "Copper Cathode", Category: "Base Metals",
			Inventory: 6.8, LeadTime: 1.2, PriceYoY: 12, Utilization: 91,
			AlertLevel: domain.AlertYellow,
			PriceData: &domain.PriceData{
				Current: 9350, Unit: "$/t", Trend: domain.TrendStable,
				History: []float64{8300, 8450, 8600, 8900, 9100, 9250, 9300, 9350},
			},
		},
		{
			ID: 6, Name: "Photoresist", Category: "Semiconductors",
			Inventory: 9, LeadTime: 1.3, PriceYoY: 8, Utilization: 78,
			PriceData: &domain.PriceData{
				Current: 0.85, Unit: "$/mL", Trend: domain.TrendStable,
				History: []float64{0.79, 0.8, 0.82, 0.83, 0.84, 0.85},
			},
		},
		{
			ID: 7, Name: "Gallium", Category: "Critical Minerals",
			Inventory: 4.5, LeadTime: 2.2, PriceYoY: 55, Utilization: 60,
			AlertLevel: domain.AlertYellow,
			PriceData: &domain.PriceData{
				Current: 1500000, Unit: "KRW/kg", Trend: domain.TrendUp,
				History: []float64{960000, 1020000, 1110000, 1230000, 1340000, 1500000},
			},
		},
		{
			ID: 8, Name: "Helium", Category: "Specialty Gases",
			Inventory: 7.5, LeadTime: 1.0, PriceYoY: 22, Utilization: 50,
		},
	}
}

// Item builds a bare item with the four alert metrics set
func Item(id int, name, category string, inventory, leadTime, priceYoY, utilization float64) domain.Item {
	return domain.Item{
		ID:          id,
		Name:        name,
		Category:    category,
		Inventory:   inventory,
		LeadTime:    leadTime,
		PriceYoY:    priceYoY,
		Utilization: utilization,
	}
}

// IDs returns the ids of items in order
func IDs(items []domain.Item) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
