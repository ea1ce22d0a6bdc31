// Package store holds a loaded dashboard dataset and answers classification,
// filter, sort and formatting queries over it. A Store never changes after
// construction; reloading builds a new one.
package store

import (
	"slices"

	"github.com/samber/lo"

	"shortwatch/pkg/contracts/domain"
)

// NoTimestamp is shown in place of lastUpdated when nothing is loaded
const NoTimestamp = "-"

// Store is an immutable view over one dataset
type Store struct {
	dataset *domain.Dataset
	byID    map[int]int
}

// Empty returns a store with no dataset. Every query answers empty results.
func Empty() *Store {
	return &Store{byID: map[int]int{}}
}

// New wraps ds. The caller must not modify ds afterwards.
func New(ds *domain.Dataset) *Store {
	if ds == nil {
		return Empty()
	}
	byID := make(map[int]int, len(ds.Items))
	for i, item := range ds.Items {
		if _, dup := byID[item.ID]; !dup {
			byID[item.ID] = i
		}
	}
	return &Store{dataset: ds, byID: byID}
}

// Loaded reports whether the store wraps a dataset
func (s *Store) Loaded() bool {
	return s.dataset != nil
}

// Dataset returns the wrapped dataset, or nil for an empty store
func (s *Store) Dataset() *domain.Dataset {
	return s.dataset
}

// Items returns a copy of all items in dataset order
func (s *Store) Items() []domain.Item {
	if s.dataset == nil {
		return []domain.Item{}
	}
	return slices.Clone(s.dataset.Items)
}

// ItemByID looks up an item. The boolean is false for unknown ids.
func (s *Store) ItemByID(id int) (domain.Item, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return domain.Item{}, false
	}
	return s.dataset.Items[idx], true
}

// Categories returns the category names published with the dataset
func (s *Store) Categories() []string {
	if s.dataset == nil {
		return []string{}
	}
	return slices.Clone(s.dataset.Categories)
}

// Chains returns the interdependency chains
func (s *Store) Chains() []domain.Chain {
	if s.dataset == nil {
		return []domain.Chain{}
	}
	return slices.Clone(s.dataset.InterdependencyChains)
}

// LeadingIndicators returns the dashboard-wide indicators
func (s *Store) LeadingIndicators() []domain.LeadingIndicator {
	if s.dataset == nil {
		return []domain.LeadingIndicator{}
	}
	return slices.Clone(s.dataset.LeadingIndicators)
}

// Summary returns the summary record as published
func (s *Store) Summary() domain.Summary {
	if s.dataset == nil {
		return domain.Summary{}
	}
	return s.dataset.Summary
}

// ComputedSummary counts items by effective alert level
func (s *Store) ComputedSummary() domain.Summary {
	if s.dataset == nil {
		return domain.Summary{}
	}
	return Summarize(s.dataset.Items)
}

// LastUpdated returns the snapshot timestamp, or NoTimestamp when empty
func (s *Store) LastUpdated() string {
	if s.dataset == nil || s.dataset.LastUpdated == "" {
		return NoTimestamp
	}
	return s.dataset.LastUpdated
}

// Commodities returns the items that carry price data, in dataset order
func (s *Store) Commodities() []domain.Item {
	if s.dataset == nil {
		return []domain.Item{}
	}
	return lo.Filter(s.dataset.Items, func(item domain.Item, _ int) bool {
		return item.HasPriceData()
	})
}

// Query filters and sorts the items
func (s *Store) Query(q ItemQuery) []domain.Item {
	if s.dataset == nil {
		return []domain.Item{}
	}
	return Apply(s.dataset.Items, q)
}
