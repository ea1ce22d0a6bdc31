package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "shortwatch/internal/errors"
	"shortwatch/internal/exporter"
	"shortwatch/internal/middleware"
	"shortwatch/internal/series"
	"shortwatch/internal/services"
	"shortwatch/internal/shared/testutil"
	"shortwatch/internal/store"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Load(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *MockDashboardService) Status() services.LoadStatus {
	return m.Called().Get(0).(services.LoadStatus)
}

func (m *MockDashboardService) Fingerprint() string {
	return m.Called().String(0)
}

func (m *MockDashboardService) Overview(ctx context.Context) (*services.Overview, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Overview), args.Error(1)
}

func (m *MockDashboardService) ListItems(ctx context.Context, q store.ItemQuery) (*services.ItemList, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ItemList), args.Error(1)
}

func (m *MockDashboardService) GetItem(ctx context.Context, id int) (*services.ItemDetail, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ItemDetail), args.Error(1)
}

func (m *MockDashboardService) GetChart(ctx context.Context, id int, window series.Window) (*services.Chart, error) {
	args := m.Called(id, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Chart), args.Error(1)
}

func (m *MockDashboardService) Chains(ctx context.Context) ([]services.ChainView, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ChainView), args.Error(1)
}

func (m *MockDashboardService) Indicators(ctx context.Context) ([]services.LeadingIndicatorView, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.LeadingIndicatorView), args.Error(1)
}

func (m *MockDashboardService) ExportItems(ctx context.Context, q store.ItemQuery, format exporter.Format, w io.Writer) error {
	return m.Called(q, format, w).Error(0)
}

func newTestRouter(t *testing.T, svc *MockDashboardService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewDashboardHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), logger, errorHandler)
	handler.now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Mount("/api", handler.Routes())
	return r
}

func serve(t *testing.T, h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

var notLoaded = errors.New("dashboard data is not loaded: fetch snapshot: status 502")

func TestDashboardHandler_GetOverview(t *testing.T) {
	overview := &services.Overview{LastUpdated: testutil.SampleLastUpdated, Fingerprint: "abc123"}

	t.Run("serves with etag", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Fingerprint").Return("abc123")
		svc.On("Overview").Return(overview, nil)

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))
		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, testutil.SampleLastUpdated, data["lastUpdated"])
		svc.AssertExpectations(t)
	})

	t.Run("matching If-None-Match short-circuits", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Fingerprint").Return("abc123")

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard",
			map[string]string{"If-None-Match": `W/"old", "abc123"`})

		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.Zero(t, rec.Body.Len())
		svc.AssertNotCalled(t, "Overview")
	})

	t.Run("not loaded answers 503 with the load failure", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Fingerprint").Return("")
		svc.On("Overview").Return(nil, errors.Join(services.ErrDatasetNotLoaded, notLoaded))
		svc.On("Status").Return(services.LoadStatus{Source: "file", Error: "fetch snapshot: status 502"})

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, apierrors.TypeDataNotLoaded, body["type"])
		assert.Equal(t, "fetch snapshot: status 502", body["detail"])
		assert.Empty(t, rec.Header().Get("ETag"))
	})
}

func TestDashboardHandler_Reload(t *testing.T) {
	t.Run("success returns status", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Load").Return(nil)
		svc.On("Status").Return(services.LoadStatus{Loaded: true, Source: "file", Items: 8})

		rec := serve(t, newTestRouter(t, svc), http.MethodPost, "/api/dashboard/reload", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, true, data["loaded"])
		assert.EqualValues(t, 8, data["items"])
	})

	t.Run("failure is a bad gateway", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Load").Return(errors.New("parse snapshot: unexpected EOF"))

		rec := serve(t, newTestRouter(t, svc), http.MethodPost, "/api/dashboard/reload", nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "parse snapshot: unexpected EOF", decode(t, rec)["detail"])
	})

	t.Run("get is not allowed", func(t *testing.T) {
		rec := serve(t, newTestRouter(t, new(MockDashboardService)), http.MethodGet, "/api/dashboard/reload", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestDashboardHandler_GetStatus(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Status").Return(services.LoadStatus{Source: "https://example.com/data.json", Error: "timeout"})

	rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, false, data["loaded"])
	assert.Equal(t, "timeout", data["error"])
}

func TestDashboardHandler_ListItems(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantQuery  *store.ItemQuery
		wantStatus int
		wantField  string
	}{
		{
			name:       "no parameters",
			target:     "/api/items",
			wantQuery:  &store.ItemQuery{},
			wantStatus: http.StatusOK,
		},
		{
			name:   "all controls",
			target: "/api/items?alert=yellow&category=Specialty+Gases&search=ne&sort=priceYoY&direction=desc",
			wantQuery: &store.ItemQuery{
				Alert: "yellow", Category: "Specialty Gases", Search: "ne",
				SortKey: store.SortByPriceYoY, Direction: store.Desc,
			},
			wantStatus: http.StatusOK,
		},
		{name: "unknown sort key", target: "/api/items?sort=colour", wantStatus: http.StatusBadRequest, wantField: "sort"},
		{name: "unknown alert", target: "/api/items?alert=purple", wantStatus: http.StatusBadRequest, wantField: "alert"},
		{name: "unknown direction", target: "/api/items?direction=up", wantStatus: http.StatusBadRequest, wantField: "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.wantQuery != nil {
				svc.On("ListItems", *tt.wantQuery).Return(&services.ItemList{
					Items: []services.ItemRow{{ID: 2, Name: "Neon Gas"}},
					Count: 1,
					Total: 8,
				}, nil)
			}

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			if tt.wantField != "" {
				assert.Equal(t, apierrors.TypeValidation, body["type"])
				details := body["details"].(map[string]interface{})["errors"].([]interface{})
				assert.Equal(t, tt.wantField, details[0].(map[string]interface{})["field"])
				svc.AssertNotCalled(t, "ListItems", mock.Anything)
				return
			}
			assert.EqualValues(t, 1, body["count"])
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetItem(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setup      func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name:   "found",
			target: "/api/items/2",
			setup: func(m *MockDashboardService) {
				m.On("GetItem", 2).Return(&services.ItemDetail{ItemRow: services.ItemRow{ID: 2, Name: "Neon Gas"}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "unknown id",
			target: "/api/items/99",
			setup: func(m *MockDashboardService) {
				m.On("GetItem", 99).Return(nil, services.ErrItemNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeItemNotFound,
		},
		{
			name:       "non-numeric id",
			target:     "/api/items/abc",
			setup:      func(*MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decode(t, rec)["type"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetChart(t *testing.T) {
	chart := &services.Chart{ItemID: 1, Period: 90, Tone: series.ToneRising}

	tests := []struct {
		name       string
		target     string
		setup      func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name:   "explicit period",
			target: "/api/items/1/chart?period=90",
			setup: func(m *MockDashboardService) {
				m.On("GetChart", 1, series.Window90).Return(chart, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "default period",
			target: "/api/items/1/chart",
			setup: func(m *MockDashboardService) {
				m.On("GetChart", 1, series.Window30).Return(chart, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unsupported period",
			target:     "/api/items/1/chart?period=7",
			setup:      func(*MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:   "item without prices",
			target: "/api/items/4/chart?period=30d",
			setup: func(m *MockDashboardService) {
				m.On("GetChart", 4, series.Window30).Return(nil, services.ErrNoPriceData)
			},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNoPriceData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)

			rec := serve(t, newTestRouter(t, svc), http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decode(t, rec)["type"])
			} else {
				data := decode(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, "rising", data["tone"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ExportItems(t *testing.T) {
	t.Run("csv download", func(t *testing.T) {
		svc := new(MockDashboardService)
		q := store.ItemQuery{Alert: "red"}
		svc.On("ExportItems", q, exporter.FormatCSV, mock.Anything).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(2).(io.Writer), "ID,Name\n1,HBM Memory\n")
			}).
			Return(nil)

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/items/export?alert=red", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, exporter.FormatCSV.ContentType(), rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="shortwatch-items-20261019.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "ID,Name\n1,HBM Memory\n", rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("xlsx download", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportItems", store.ItemQuery{}, exporter.FormatXLSX, mock.Anything).Return(nil)

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/items/export?format=xlsx", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := new(MockDashboardService)
		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/items/export?format=pdf", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ExportItems", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("write failure", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ExportItems", store.ItemQuery{}, exporter.FormatCSV, mock.Anything).Return(errors.New("export items: disk full"))

		rec := serve(t, newTestRouter(t, svc), http.MethodGet, "/api/items/export", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, apierrors.TypeExportFailed, decode(t, rec)["type"])
	})
}

func TestDashboardHandler_ChainsAndIndicators(t *testing.T) {
	ds := testutil.SampleDataset()
	svc := new(MockDashboardService)
	svc.On("Chains").Return([]services.ChainView{{Chain: ds.InterdependencyChains[0], StatusLabel: "Critical"}}, nil)
	svc.On("Indicators").Return(nil, services.ErrDatasetNotLoaded)
	svc.On("Status").Return(services.LoadStatus{})
	router := newTestRouter(t, svc)

	rec := serve(t, router, http.MethodGet, "/api/chains", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = serve(t, router, http.MethodGet, "/api/indicators", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Dashboard data is not loaded", decode(t, rec)["detail"])
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"abcd"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, `"abc"`), tt.header)
	}
}
