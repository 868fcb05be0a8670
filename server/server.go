package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/spektr-org/cardbuffet/catalog"
	"github.com/spektr-org/cardbuffet/config"
	"github.com/spektr-org/cardbuffet/engine"
	"github.com/spektr-org/cardbuffet/store"
)

// Server exposes buffet generation over HTTP.
type Server struct {
	router   *gin.Engine
	store    store.EntityStore
	defaults engine.ViewOptions
	options  []engine.Option
	logger   zerolog.Logger
}

// New wires routes around an entity store.
func New(cfg *config.AppConfig, st store.EntityStore, logger zerolog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   gin.New(),
		store:    st,
		defaults: cfg.ViewDefaults(),
		options:  append(opts, engine.WithLogger(logger)),
		logger:   logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts listening on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("cardbuffet listening")
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	api := s.router.Group("/api")
	{
		api.GET("/fields", s.handleFields)
		api.GET("/entities/:type/years", s.handleYears)
		api.POST("/buffet/:type/:field", s.handleBuffet)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// ============================================================================
// HANDLERS
// ============================================================================

type fieldInfo struct {
	Field    string        `json:"field"`
	Label    string        `json:"label"`
	Shape    catalog.Shape `json:"shape"`
	Ranking  bool          `json:"ranking,omitempty"`
	Currency bool          `json:"currency,omitempty"`
}

func (s *Server) handleFields(c *gin.Context) {
	recipes := catalog.Recipes()
	out := make([]fieldInfo, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, fieldInfo{
			Field: r.Field, Label: r.Label, Shape: r.Shape, Ranking: r.Ranking, Currency: r.Currency,
		})
	}
	c.JSON(http.StatusOK, gin.H{"fields": out, "entityTypes": engine.EntityTypes})
}

func (s *Server) handleYears(c *gin.Context) {
	entityType := engine.EntityType(c.Param("type"))
	field := c.Query("field")
	if field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": engine.ErrFieldRequired.Error()})
		return
	}
	if !entityType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: %q", engine.ErrUnknownEntityType, entityType)})
		return
	}

	entities, err := s.store.Entities(c.Request.Context(), entityType)
	if err != nil {
		s.storeError(c, err)
		return
	}
	years, err := engine.FiscalYears(entityType, field, entities)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entityType": entityType, "field": field, "fiscalYears": years})
}

func (s *Server) handleBuffet(c *gin.Context) {
	entityType := engine.EntityType(c.Param("type"))
	field := c.Param("field")

	opts := s.defaults
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid view options: " + err.Error()})
			return
		}
	}

	var entities []engine.Entity
	if entityType.Valid() {
		entities, err = s.store.Entities(c.Request.Context(), entityType)
		if err != nil {
			s.storeError(c, err)
			return
		}
	}

	result := engine.Generate(entityType, field, entities, opts, s.options...)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, engine.ErrUnknownEntityType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error().Err(err).Msg("entity store failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "entity store unavailable"})
}
