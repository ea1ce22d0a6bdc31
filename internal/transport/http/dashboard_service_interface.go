package http

import (
	"context"
	"io"

	"shortwatch/internal/exporter"
	"shortwatch/internal/series"
	"shortwatch/internal/services"
	"shortwatch/internal/store"
)

// DashboardServiceInterface is the part of services.DashboardService the
// handlers use
type DashboardServiceInterface interface {
	Load(ctx context.Context) error
	Status() services.LoadStatus
	Fingerprint() string
	Overview(ctx context.Context) (*services.Overview, error)
	ListItems(ctx context.Context, q store.ItemQuery) (*services.ItemList, error)
	GetItem(ctx context.Context, id int) (*services.ItemDetail, error)
	GetChart(ctx context.Context, id int, window series.Window) (*services.Chart, error)
	Chains(ctx context.Context) ([]services.ChainView, error)
	Indicators(ctx context.Context) ([]services.LeadingIndicatorView, error)
	ExportItems(ctx context.Context, q store.ItemQuery, format exporter.Format, w io.Writer) error
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
