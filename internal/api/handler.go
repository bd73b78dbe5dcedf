package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "recipecatalog/internal/errors"
	"recipecatalog/internal/recipe"
)

// RecipeStore defines the read operations the HTTP layer needs.
type RecipeStore interface {
	List(ctx context.Context, minCalories *float64, p recipe.Pagination) (*recipe.ListPage, error)
	ListByRating(ctx context.Context, p recipe.Pagination) (*recipe.RatedPage, error)
	Search(ctx context.Context, f recipe.Filters, p recipe.Pagination) (*recipe.SearchPage, error)
	Get(ctx context.Context, id int64) (*recipe.Recipe, error)
	Ping(ctx context.Context) error
}

// RecipeImporter runs a bulk import from the configured source.
type RecipeImporter interface {
	ImportFile(ctx context.Context) (*recipe.ImportResult, error)
}

// Handler handles HTTP requests.
type Handler struct {
	RecipeStore    RecipeStore
	RecipeImporter RecipeImporter
	QueryTimeout   time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(recipeStore RecipeStore, recipeImporter RecipeImporter, queryTimeout time.Duration) *Handler {
	return &Handler{RecipeStore: recipeStore, RecipeImporter: recipeImporter, QueryTimeout: queryTimeout}
}

func (h *Handler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.QueryTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.QueryTimeout)
}

// List handles GET /list: newest recipes first, optionally with a calorie floor.
func (h *Handler) List(c *gin.Context) {
	p := recipe.NewPagination(c.Query("page"), c.Query("limit"), recipe.DefaultListLimit)

	var minCalories *float64
	if raw := strings.TrimSpace(c.Query("minCalories")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			minCalories = &v
		}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	page, err := h.RecipeStore.List(ctx, minCalories, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListByRating handles GET /list-by-rating.
func (h *Handler) ListByRating(c *gin.Context) {
	p := recipe.NewPagination(c.Query("page"), c.Query("limit"), recipe.DefaultRatedLimit)

	ctx, cancel := h.context(c)
	defer cancel()

	page, err := h.RecipeStore.ListByRating(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search handles GET /search. Filters that do not parse are ignored rather
// than rejected.
func (h *Handler) Search(c *gin.Context) {
	p := recipe.NewPagination(c.Query("page"), c.Query("limit"), recipe.DefaultSearchLimit)
	filters := recipe.FiltersFromQuery(c.Request.URL.Query())

	ctx, cancel := h.context(c)
	defer cancel()

	page, err := h.RecipeStore.Search(ctx, filters, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRecipe handles GET /recipes/:id.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "recipe id must be a positive integer", err))
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	r, err := h.RecipeStore.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Import handles POST /import. The request body is ignored; records are read
// from the server-side source and appended to the table.
func (h *Handler) Import(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.RecipeImporter.ImportFile(ctx)
	if err != nil {
		importFailures.Inc()
		writeError(c, err)
		return
	}
	recipesImported.Add(float64(res.Imported))
	c.JSON(http.StatusCreated, res)
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// Ready handles GET /ready; it reports not ready while the database is unreachable.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.RecipeStore.Ping(ctx); err != nil {
		writeError(c, apperrors.Wrap(apperrors.ErrCodeUnavailable, "database unavailable", err))
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ready", Timestamp: time.Now().UTC()})
}

// isTimeout reports whether err came from an expired request deadline.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
