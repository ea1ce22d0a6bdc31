package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"shortwatch/pkg/contracts/domain"
)

// FilterAll disables the alert or category predicate
const FilterAll = "all"

// SortKey names a sortable item column
type SortKey string

const (
	SortByID          SortKey = "id"
	SortByName        SortKey = "name"
	SortByCategory    SortKey = "category"
	SortByInventory   SortKey = "inventory"
	SortByLeadTime    SortKey = "leadTime"
	SortByPriceYoY    SortKey = "priceYoY"
	SortByUtilization SortKey = "utilization"
	SortByAlertLevel  SortKey = "alertLevel"
)

// SortKeys lists every supported sort key
var SortKeys = []SortKey{
	SortByID, SortByName, SortByCategory, SortByInventory,
	SortByLeadTime, SortByPriceYoY, SortByUtilization, SortByAlertLevel,
}

// Direction is the sort order
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ItemQuery bundles the table controls: three filters plus a sort.
type ItemQuery struct {
	Alert     string    `json:"alert"`
	Category  string    `json:"category"`
	Search    string    `json:"search"`
	SortKey   SortKey   `json:"sort"`
	Direction Direction `json:"direction"`
}

// DefaultQuery is the table state on first render: everything, by id ascending.
func DefaultQuery() ItemQuery {
	return ItemQuery{Alert: FilterAll, Category: FilterAll, SortKey: SortByID, Direction: Asc}
}

// Filter keeps the items matching all three predicates. The alert and category
// predicates are skipped for FilterAll (or ""), the search predicate for "".
// Search is a case-insensitive substring match on name or category. The
// result keeps the input order and never aliases the input slice.
func Filter(items []domain.Item, alert, category, search string) []domain.Item {
	term := strings.ToLower(search)
	return lo.Filter(items, func(item domain.Item, _ int) bool {
		if alert != "" && alert != FilterAll && string(EffectiveAlertLevel(item)) != alert {
			return false
		}
		if category != "" && category != FilterAll && item.Category != category {
			return false
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(item.Name), term) &&
			!strings.Contains(strings.ToLower(item.Category), term) {
			return false
		}
		return true
	})
}

// Sort returns a stably sorted copy of items. Anything other than Desc sorts
// ascending. Unknown keys leave the order unchanged.
func Sort(items []domain.Item, key SortKey, dir Direction) []domain.Item {
	out := slices.Clone(items)
	compare := comparator(key)
	if compare == nil {
		return out
	}
	if dir == Desc {
		slices.SortStableFunc(out, func(a, b domain.Item) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key SortKey) func(a, b domain.Item) int {
	switch key {
	case SortByID:
		return func(a, b domain.Item) int { return cmp.Compare(a.ID, b.ID) }
	case SortByName:
		return func(a, b domain.Item) int { return compareFold(a.Name, b.Name) }
	case SortByCategory:
		return func(a, b domain.Item) int { return compareFold(a.Category, b.Category) }
	case SortByInventory:
		return func(a, b domain.Item) int { return cmp.Compare(a.Inventory, b.Inventory) }
	case SortByLeadTime:
		return func(a, b domain.Item) int { return cmp.Compare(a.LeadTime, b.LeadTime) }
	case SortByPriceYoY:
		return func(a, b domain.Item) int { return cmp.Compare(a.PriceYoY, b.PriceYoY) }
	case SortByUtilization:
		return func(a, b domain.Item) int { return cmp.Compare(a.Utilization, b.Utilization) }
	case SortByAlertLevel:
		return func(a, b domain.Item) int {
			return cmp.Compare(EffectiveAlertLevel(a).Rank(), EffectiveAlertLevel(b).Rank())
		}
	default:
		return nil
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Apply runs Filter then Sort for q
func Apply(items []domain.Item, q ItemQuery) []domain.Item {
	return Sort(Filter(items, q.Alert, q.Category, q.Search), q.SortKey, q.Direction)
}
