package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recipecatalog/internal/errors"
	"recipecatalog/internal/recipe"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockStore is a mock of RecipeStore.
type mockStore struct {
	returnError error
	pingError   error

	receivedMinCalories *float64
	receivedFilters     recipe.Filters
	receivedPagination  recipe.Pagination
	receivedID          int64
}

func (m *mockStore) List(ctx context.Context, minCalories *float64, p recipe.Pagination) (*recipe.ListPage, error) {
	m.receivedMinCalories = minCalories
	m.receivedPagination = p
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &recipe.ListPage{Page: p.Page, Limit: p.Limit, Count: 1, Data: []recipe.ListItem{{ID: 7, Title: "Pie"}}}, nil
}

func (m *mockStore) ListByRating(ctx context.Context, p recipe.Pagination) (*recipe.RatedPage, error) {
	m.receivedPagination = p
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &recipe.RatedPage{Page: p.Page, Limit: p.Limit, Total: 1, Data: []recipe.RatedItem{{ID: 7, Title: "Pie"}}}, nil
}

func (m *mockStore) Search(ctx context.Context, f recipe.Filters, p recipe.Pagination) (*recipe.SearchPage, error) {
	m.receivedFilters = f
	m.receivedPagination = p
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &recipe.SearchPage{Page: p.Page, Limit: p.Limit, Total: 0, Data: []recipe.SearchItem{}}, nil
}

func (m *mockStore) Get(ctx context.Context, id int64) (*recipe.Recipe, error) {
	m.receivedID = id
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &recipe.Recipe{ID: id, Title: "Pie"}, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingError
}

// mockImporter is a mock of RecipeImporter.
type mockImporter struct {
	returnError error
	calls       int
}

func (m *mockImporter) ImportFile(ctx context.Context) (*recipe.ImportResult, error) {
	m.calls++
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &recipe.ImportResult{Imported: 3, Source: "US_recipes_null.json"}, nil
}

func newTestRouter(store RecipeStore, importer RecipeImporter) *gin.Engine {
	h := NewHandler(store, importer, 5*time.Second)
	return NewRouter(h, RouterConfig{AllowedOrigins: []string{"*"}, RateLimit: 1000, RateLimitBurst: 1000})
}

func doRequest(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestList(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		store := &mockStore{}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/list")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, recipe.Pagination{Page: 1, Limit: recipe.DefaultListLimit}, store.receivedPagination)
		assert.Nil(t, store.receivedMinCalories)

		var page recipe.ListPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Count)
		require.Len(t, page.Data, 1)
		assert.Equal(t, int64(7), page.Data[0].ID)
	})

	t.Run("min calories", func(t *testing.T) {
		store := &mockStore{}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/list?minCalories=250&page=2&limit=5")

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, store.receivedMinCalories)
		assert.Equal(t, 250.0, *store.receivedMinCalories)
		assert.Equal(t, recipe.Pagination{Page: 2, Limit: 5}, store.receivedPagination)
	})

	t.Run("unparseable min calories is ignored", func(t *testing.T) {
		store := &mockStore{}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/list?minCalories=lots")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, store.receivedMinCalories)
	})
}

func TestListByRating(t *testing.T) {
	for _, path := range []string{"/list-by-rating", "/api/recipes"} {
		t.Run(path, func(t *testing.T) {
			store := &mockStore{}
			w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, path+"?limit=500")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, recipe.Pagination{Page: 1, Limit: recipe.MaxLimit}, store.receivedPagination)

			var page recipe.RatedPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.Equal(t, int64(1), page.Total)
		})
	}
}

func TestSearch(t *testing.T) {
	for _, path := range []string{"/search", "/api/recipes/search"} {
		t.Run(path, func(t *testing.T) {
			store := &mockStore{}
			w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet,
				path+"?title=pie&cuisine=Southern&calories=%3C%3D400&rating=%3E%3D4.5&unknown=1")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, recipe.Pagination{Page: 1, Limit: recipe.DefaultSearchLimit}, store.receivedPagination)
			assert.Equal(t, "pie", store.receivedFilters[recipe.FilterTitle])
			assert.Equal(t, "Southern", store.receivedFilters[recipe.FilterCuisine])
			assert.Equal(t, "<=400", store.receivedFilters[recipe.FilterCalories])
			assert.Equal(t, ">=4.5", store.receivedFilters[recipe.FilterRating])
			assert.NotContains(t, store.receivedFilters, "unknown")

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, []any{}, body["data"])
		})
	}
}

func TestSearch_StoreErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      apperrors.ErrorCode
		retryable bool
	}{
		{"storage failure", errors.New("disk I/O error"), http.StatusInternalServerError, apperrors.ErrCodeInternal, false},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, apperrors.ErrCodeTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{returnError: tt.err}
			w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/search")

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, string(tt.code), resp.Code)
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, w.Header().Get(requestIDHeader), resp.RequestID)
		})
	}
}

func TestGetRecipe(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := &mockStore{}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/recipes/42")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(42), store.receivedID)
	})

	t.Run("not found", func(t *testing.T) {
		store := &mockStore{returnError: recipe.ErrNotFound}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/recipes/42")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, string(apperrors.ErrCodeNotFound), decodeError(t, w).Code)
	})

	t.Run("bad id", func(t *testing.T) {
		store := &mockStore{}
		w := doRequest(newTestRouter(store, &mockImporter{}), http.MethodGet, "/recipes/abc")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(apperrors.ErrCodeInvalidRequest), decodeError(t, w).Code)
		assert.Zero(t, store.receivedID)
	})
}

func TestImport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		importer := &mockImporter{}
		w := doRequest(newTestRouter(&mockStore{}, importer), http.MethodPost, "/import")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, importer.calls)
		assert.JSONEq(t, `{"imported":3,"source":"US_recipes_null.json"}`, w.Body.String())
	})

	t.Run("alias", func(t *testing.T) {
		importer := &mockImporter{}
		w := doRequest(newTestRouter(&mockStore{}, importer), http.MethodPost, "/api/recipes/import")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, importer.calls)
	})

	t.Run("malformed source", func(t *testing.T) {
		importer := &mockImporter{returnError: apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "malformed import source", recipe.ErrMalformedInput)}
		w := doRequest(newTestRouter(&mockStore{}, importer), http.MethodPost, "/import")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, string(apperrors.ErrCodeInvalidRequest), resp.Code)
		assert.Equal(t, "malformed import source", resp.Message)
		assert.False(t, resp.Retryable)
	})

	t.Run("storage failure", func(t *testing.T) {
		importer := &mockImporter{returnError: apperrors.WrapWithContext(apperrors.ErrCodeInternal, "import failed",
			errors.New("constraint failed"), map[string]any{"records": 2})}
		w := doRequest(newTestRouter(&mockStore{}, importer), http.MethodPost, "/import")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, string(apperrors.ErrCodeInternal), resp.Code)
		assert.Equal(t, "constraint failed", resp.Details["error"])
		assert.EqualValues(t, 2, resp.Details["records"])
	})

	t.Run("wrong method", func(t *testing.T) {
		importer := &mockImporter{}
		w := doRequest(newTestRouter(&mockStore{}, importer), http.MethodGet, "/import")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, importer.calls)
	})
}

func TestHealthAndReady(t *testing.T) {
	w := doRequest(newTestRouter(&mockStore{}, &mockImporter{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(newTestRouter(&mockStore{}, &mockImporter{}), http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(newTestRouter(&mockStore{pingError: errors.New("closed")}, &mockImporter{}), http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(apperrors.ErrCodeUnavailable), resp.Code)
	assert.True(t, resp.Retryable)
}

func TestRequestIDIsPropagated(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	newTestRouter(&mockStore{}, &mockImporter{}).ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(&mockStore{}, &mockImporter{}, time.Second)
	r := NewRouter(h, RouterConfig{AllowedOrigins: []string{"*"}, RateLimit: 0.001, RateLimitBurst: 1})

	w := doRequest(r, http.MethodGet, "/list")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/list")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(apperrors.ErrCodeRateLimitExceeded), resp.Code)
	assert.True(t, resp.Retryable)

	// Health checks are not rate limited.
	w = doRequest(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := doRequest(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeInternal), decodeError(t, w).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&mockStore{}, &mockImporter{})
	doRequest(r, http.MethodGet, "/list")

	w := doRequest(r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipes_http_requests_total")
}

func TestCORS(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	newTestRouter(&mockStore{}, &mockImporter{}).ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
