package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"shortwatch/internal/exporter"
	"shortwatch/internal/infrastructure"
	"shortwatch/internal/loader"
	"shortwatch/internal/series"
	"shortwatch/internal/store"
	"shortwatch/pkg/contracts/domain"
	"shortwatch/pkg/contracts/events"
)

// EventDatasetReloaded is broadcast after every successful load
const EventDatasetReloaded = events.TypeDatasetReloaded

// ExportSheet names the worksheet of item exports
const ExportSheet = "Items"

// SnapshotLoader produces validated dashboard snapshots
type SnapshotLoader interface {
	Load(ctx context.Context) (*loader.Snapshot, error)
}

// Notifier pushes events to connected clients
type Notifier interface {
	Broadcast(messageType string, data interface{})
}

// ReloadEvent is the payload of EventDatasetReloaded
type ReloadEvent struct {
	LastUpdated string         `json:"lastUpdated"`
	Fingerprint string         `json:"fingerprint"`
	Summary     domain.Summary `json:"summary"`
}

type dashboardState struct {
	store    *store.Store
	snapshot *loader.Snapshot
}

// DashboardService answers dashboard queries against the most recently
// loaded snapshot. A reload swaps the whole store at once; a failed reload
// keeps the previous one.
type DashboardService struct {
	loader        SnapshotLoader
	source        string
	resampler     *series.Resampler
	defaultWindow series.Window
	notifier      Notifier
	metrics       *infrastructure.DashboardMetrics
	logger        *slog.Logger

	state atomic.Pointer[dashboardState]

	mu      sync.RWMutex
	lastErr error
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithNotifier sets the reload event sink
func WithNotifier(n Notifier) DashboardOption {
	return func(s *DashboardService) { s.notifier = n }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *infrastructure.DashboardMetrics) DashboardOption {
	return func(s *DashboardService) { s.metrics = m }
}

// WithResampler sets the chart resampler, mainly to pin the clock in tests
func WithResampler(r *series.Resampler) DashboardOption {
	return func(s *DashboardService) { s.resampler = r }
}

// WithDefaultWindow sets the chart window used when none is requested
func WithDefaultWindow(w series.Window) DashboardOption {
	return func(s *DashboardService) { s.defaultWindow = w }
}

// NewDashboardService creates the service. source only labels logs and
// metrics; nothing is loaded until Load is called.
func NewDashboardService(l SnapshotLoader, source string, logger *slog.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DashboardService{
		loader:        l,
		source:        source,
		resampler:     series.NewResampler(nil, nil),
		defaultWindow: series.DefaultWindow,
		logger:        logger.With(slog.String("component", "dashboard_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the snapshot and makes it current
func (s *DashboardService) Load(ctx context.Context) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	snap, err := s.loader.Load(ctx)
	s.metrics.RecordSnapshotLoad(ctx, s.source, time.Since(start), err)

	if err != nil {
		s.setLastErr(err)
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "Dashboard snapshot load failed",
			slog.String("source", s.source),
			slog.String("error", err.Error()),
			slog.Bool("serving_previous", s.state.Load() != nil))
		return err
	}

	st := store.New(snap.Dataset)
	s.state.Store(&dashboardState{store: st, snapshot: snap})
	s.setLastErr(nil)

	divergent := store.AlertDivergence(snap.Dataset.Items)
	for _, d := range divergent {
		s.logger.WarnContext(ctx, "Published alert level differs from the alert rule",
			slog.Int("item_id", d.ID),
			slog.String("item", d.Name),
			slog.String("published", string(d.Published)),
			slog.String("classified", string(d.Classified)))
	}

	computed := st.ComputedSummary()
	if published := st.Summary(); published != computed {
		s.logger.WarnContext(ctx, "Published summary does not match item levels",
			slog.Any("published", published),
			slog.Any("computed", computed))
	}
	s.metrics.RecordSnapshotItems(ctx, computed.Red, computed.Yellow, computed.Green, len(divergent))

	s.logger.InfoContext(ctx, "Dashboard snapshot loaded",
		slog.String("source", snap.Source),
		slog.String("last_updated", st.LastUpdated()),
		slog.String("fingerprint", snap.Fingerprint),
		slog.Int("items", computed.Total),
		slog.Duration("duration", time.Since(start)))

	if s.notifier != nil {
		s.notifier.Broadcast(EventDatasetReloaded, ReloadEvent{
			LastUpdated: st.LastUpdated(),
			Fingerprint: snap.Fingerprint,
			Summary:     computed,
		})
	}
	return nil
}

// Status reports the outcome of the latest load
func (s *DashboardService) Status() LoadStatus {
	status := LoadStatus{Source: s.source}
	if st := s.state.Load(); st != nil {
		loadedAt := st.snapshot.LoadedAt
		status.Loaded = true
		status.Source = st.snapshot.Source
		status.Fingerprint = st.snapshot.Fingerprint
		status.LoadedAt = &loadedAt
		status.Items = len(st.snapshot.Dataset.Items)
	}
	if err := s.getLastErr(); err != nil {
		status.Error = err.Error()
	}
	return status
}

// Fingerprint returns the hash of the current snapshot, or "" when nothing
// is loaded
func (s *DashboardService) Fingerprint() string {
	if st := s.state.Load(); st != nil {
		return st.snapshot.Fingerprint
	}
	return ""
}

// Overview returns the dashboard header data
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	commodities := lo.Map(st.store.Commodities(), func(item domain.Item, _ int) CommodityOption {
		return CommodityOption{ID: item.ID, Name: item.Name}
	})

	return &Overview{
		LastUpdated:      st.store.LastUpdated(),
		Summary:          st.store.ComputedSummary(),
		PublishedSummary: st.store.Summary(),
		Categories:       st.store.Categories(),
		Commodities:      commodities,
		Divergences:      store.AlertDivergence(st.store.Items()),
		Fingerprint:      st.snapshot.Fingerprint,
	}, nil
}

// ListItems filters and sorts the table rows
func (s *DashboardService) ListItems(ctx context.Context, q store.ItemQuery) (*ItemList, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	q = normalizeQuery(q)
	items := st.store.Query(q)
	s.metrics.RecordItemQuery(ctx, string(q.SortKey))

	s.logger.DebugContext(ctx, "Item query",
		slog.String("alert", q.Alert),
		slog.String("category", q.Category),
		slog.String("search", q.Search),
		slog.String("sort", string(q.SortKey)),
		slog.String("direction", string(q.Direction)),
		slog.Int("matches", len(items)))

	return &ItemList{
		Items: lo.Map(items, func(item domain.Item, _ int) ItemRow { return newItemRow(item) }),
		Count: len(items),
		Total: len(st.snapshot.Dataset.Items),
		Query: q,
	}, nil
}

// GetItem returns the detail view of one item
func (s *DashboardService) GetItem(ctx context.Context, id int) (*ItemDetail, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	item, ok := st.store.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	detail := newItemDetail(item)
	return &detail, nil
}

// GetChart resamples the item's price history to the window. A zero window
// selects the default.
func (s *DashboardService) GetChart(ctx context.Context, id int, window series.Window) (*Chart, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	item, ok := st.store.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	if !item.HasPriceData() {
		return nil, fmt.Errorf("%w: %d", ErrNoPriceData, id)
	}
	if window == 0 {
		window = s.defaultWindow
	}
	s.metrics.RecordChartQuery(ctx, window.String())

	values := s.resampler.Resample(item.PriceData.History, window.Days())
	tone := series.TrendTone(values)

	return &Chart{
		ItemID:    item.ID,
		Name:      item.Name,
		Period:    window.Days(),
		Labels:    s.resampler.GenerateLabels(window.Days()),
		Values:    values,
		Tone:      tone,
		Warning:   tone.Warning(),
		LineColor: tone.LineColor(),
		FillColor: tone.FillColor(),
		Stats:     series.Describe(values),
		Price:     newPriceInfo(item),
	}, nil
}

// Chains returns the interdependency chain cards
func (s *DashboardService) Chains(ctx context.Context) ([]ChainView, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return lo.Map(st.store.Chains(), func(c domain.Chain, _ int) ChainView {
		return ChainView{Chain: c, StatusLabel: c.Status.Label()}
	}), nil
}

// Indicators returns the dashboard-wide leading indicators
func (s *DashboardService) Indicators(ctx context.Context) ([]LeadingIndicatorView, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return lo.Map(st.store.LeadingIndicators(), func(li domain.LeadingIndicator, _ int) LeadingIndicatorView {
		return LeadingIndicatorView{LeadingIndicator: li, TrendSymbol: li.Trend.Symbol()}
	}), nil
}

// ItemTable renders the query result as an export table
func (s *DashboardService) ItemTable(ctx context.Context, q store.ItemQuery) (exporter.Table, error) {
	st, err := s.current()
	if err != nil {
		return exporter.Table{}, err
	}

	items := st.store.Query(normalizeQuery(q))
	table := exporter.Table{
		Sheet: ExportSheet,
		Headers: []string{
			"ID", "Name", "Category", "Inventory (weeks)", "Lead Time (x)",
			"Price YoY (%)", "Utilization (%)", "Alert Level", "Current Price", "Trend",
		},
		Records: make([][]string, 0, len(items)),
	}
	for _, item := range items {
		price, trend := "", ""
		if item.PriceData != nil {
			price = store.FormatPrice(item.PriceData.Current, item.PriceData.Unit)
			trend = TrendLabel(item.PriceData.Trend)
		}
		table.Records = append(table.Records, []string{
			exporter.FormatInt(item.ID),
			item.Name,
			item.Category,
			exporter.FormatNumber(item.Inventory),
			exporter.FormatNumber(item.LeadTime),
			exporter.FormatNumber(item.PriceYoY),
			exporter.FormatNumber(item.Utilization),
			store.EffectiveAlertLevel(item).Label(),
			price,
			trend,
		})
	}
	return table, nil
}

// ExportItems writes the query result to w in the given format
func (s *DashboardService) ExportItems(ctx context.Context, q store.ItemQuery, format exporter.Format, w io.Writer) error {
	if format != exporter.FormatCSV && format != exporter.FormatXLSX {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	table, err := s.ItemTable(ctx, q)
	if err != nil {
		return err
	}
	if err := exporter.Write(w, format, table); err != nil {
		return fmt.Errorf("export items: %w", err)
	}

	s.metrics.RecordExport(ctx, string(format))
	s.logger.InfoContext(ctx, "Items exported",
		slog.String("format", string(format)),
		slog.Int("rows", len(table.Records)))
	return nil
}

func (s *DashboardService) current() (*dashboardState, error) {
	if st := s.state.Load(); st != nil {
		return st, nil
	}
	if err := s.getLastErr(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetNotLoaded, err)
	}
	return nil, ErrDatasetNotLoaded
}

func (s *DashboardService) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *DashboardService) getLastErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// normalizeQuery fills unset fields with the default query
func normalizeQuery(q store.ItemQuery) store.ItemQuery {
	def := store.DefaultQuery()
	if q.Alert == "" {
		q.Alert = def.Alert
	}
	if q.Category == "" {
		q.Category = def.Category
	}
	if q.SortKey == "" {
		q.SortKey = def.SortKey
	}
	if q.Direction == "" {
		q.Direction = def.Direction
	}
	return q
}
