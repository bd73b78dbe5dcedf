package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "recipecatalog/internal/errors"
)

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      float64
	RateLimitBurst int
}

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(), Metrics(), Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.NoRoute(func(c *gin.Context) {
		writeErrorResponse(c, http.StatusNotFound, apperrors.ErrCodeNotFound, "route not found", nil)
	})

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/", RateLimit(cfg.RateLimit, cfg.RateLimitBurst))
	{
		limited.GET("/list", h.List)
		limited.GET("/list-by-rating", h.ListByRating)
		limited.GET("/search", h.Search)
		limited.POST("/import", h.Import)
		limited.GET("/recipes/:id", h.GetRecipe)

		recipes := limited.Group("/api/recipes")
		recipes.GET("", h.ListByRating)
		recipes.GET("/search", h.Search)
		recipes.POST("/import", h.Import)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
