package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "shortwatch/internal/errors"
	"shortwatch/internal/exporter"
	"shortwatch/internal/middleware"
	"shortwatch/internal/series"
	"shortwatch/internal/services"
	"shortwatch/internal/store"
)

// ExportFilePrefix starts every export file name
const ExportFilePrefix = "shortwatch-items"

type contextKey int

const itemIDKey contextKey = iota

// itemQueryParams are the table controls as they arrive on the query string
type itemQueryParams struct {
	Alert     string `query:"alert" validate:"omitempty,oneof=all red yellow green"`
	Category  string `query:"category" validate:"max=100"`
	Search    string `query:"search" validate:"max=100"`
	Sort      string `query:"sort" validate:"omitempty,oneof=id name category inventory leadTime priceYoY utilization alertLevel"`
	Direction string `query:"direction" validate:"omitempty,oneof=asc desc"`
}

type chartParams struct {
	Period string `query:"period" validate:"omitempty,window"`
}

type exportParams struct {
	itemQueryParams
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
}

func bindItemQuery(r *http.Request) itemQueryParams {
	q := r.URL.Query()
	return itemQueryParams{
		Alert:     q.Get("alert"),
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
	}
}

func (p itemQueryParams) toQuery() store.ItemQuery {
	return store.ItemQuery{
		Alert:     p.Alert,
		Category:  p.Category,
		Search:    p.Search,
		SortKey:   store.SortKey(p.Sort),
		Direction: store.Direction(p.Direction),
	}
}

// DashboardHandler serves the dashboard API
type DashboardHandler struct {
	service      DashboardServiceInterface
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewDashboardHandler creates the handler
func NewDashboardHandler(service DashboardServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validation:   validation,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the dashboard routes, meant to be mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.GetOverview)
		r.Post("/reload", h.Reload)
		r.Get("/status", h.GetStatus)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Get("/export", h.ExportItems)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.ItemCtx)
			r.Get("/", h.GetItem)
			r.Get("/chart", h.GetChart)
		})
	})

	r.Get("/chains", h.GetChains)
	r.Get("/indicators", h.GetIndicators)

	return r
}

// ItemCtx parses the {id} path parameter
func (h *DashboardHandler) ItemCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", fmt.Sprintf("Invalid item id %q", raw)))
			return
		}

		ctx := context.WithValue(r.Context(), itemIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func itemID(r *http.Request) int {
	id, _ := r.Context().Value(itemIDKey).(int)
	return id
}

// GetOverview handles GET /api/dashboard. The ETag is the snapshot
// fingerprint so pollers can skip unchanged data.
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	if fp := h.service.Fingerprint(); fp != "" {
		etag := strconv.Quote(fp)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	success(w, r, overview)
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "manual reload requested")

	if err := h.service.Load(r.Context()); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.LoadFailedError(err))
		return
	}

	success(w, r, h.service.Status())
}

// GetStatus handles GET /api/dashboard/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	success(w, r, h.service.Status())
}

// ListItems handles GET /api/items
func (h *DashboardHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := bindItemQuery(r)
	if err := h.validation.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	list, err := h.service.ListItems(r.Context(), params.toQuery())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   list,
		"count":  list.Count,
	})
}

// GetItem handles GET /api/items/{id}
func (h *DashboardHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := itemID(r)
	detail, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.handleItemError(w, r, id, err)
		return
	}

	success(w, r, detail)
}

// GetChart handles GET /api/items/{id}/chart?period=30|90|365
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	params := chartParams{Period: r.URL.Query().Get("period")}
	if err := h.validation.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	window, err := series.ParseWindow(params.Period)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("period", err.Error()))
		return
	}

	id := itemID(r)
	chart, err := h.service.GetChart(r.Context(), id, window)
	if err != nil {
		h.handleItemError(w, r, id, err)
		return
	}

	success(w, r, chart)
}

// ExportItems handles GET /api/items/export?format=csv|xlsx with the table
// filters. The file is built in memory so failures still render a problem.
func (h *DashboardHandler) ExportItems(w http.ResponseWriter, r *http.Request) {
	params := exportParams{
		itemQueryParams: bindItemQuery(r),
		Format:          r.URL.Query().Get("format"),
	}
	if err := h.validation.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(params.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError(params.Format))
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportItems(r.Context(), params.toQuery(), format, &buf); err != nil {
		if errors.Is(err, services.ErrDatasetNotLoaded) || errors.Is(err, services.ErrUnsupportedFormat) {
			h.handleServiceError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ExportFailedError(err))
		return
	}

	filename := fmt.Sprintf("%s-%s%s", ExportFilePrefix, h.now().Format("20060102"), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
	}
}

// GetChains handles GET /api/chains
func (h *DashboardHandler) GetChains(w http.ResponseWriter, r *http.Request) {
	chains, err := h.service.Chains(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chains,
		"count":  len(chains),
	})
}

// GetIndicators handles GET /api/indicators
func (h *DashboardHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.service.Indicators(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   indicators,
		"count":  len(indicators),
	})
}

func (h *DashboardHandler) handleItemError(w http.ResponseWriter, r *http.Request, id int, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ItemNotFoundError(id))
	case errors.Is(err, services.ErrNoPriceData):
		h.errorHandler.HandleError(w, r, apierrors.NoPriceDataError(id))
	default:
		h.handleServiceError(w, r, err)
	}
}

// handleServiceError maps the service sentinels onto API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		var cause error
		if msg := h.service.Status().Error; msg != "" {
			cause = errors.New(msg)
		}
		h.errorHandler.HandleError(w, r, apierrors.DataNotLoadedError(cause))
	case errors.Is(err, services.ErrUnsupportedFormat):
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError(r.URL.Query().Get("format")))
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func success(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// etagMatches implements the weak comparison of If-None-Match
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
