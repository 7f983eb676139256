// Package api exposes the library over HTTP: ingestion, processing
// status, re-analysis, taxonomy management, provider settings, and Q&A.
// Auth lives in front of this service; requests carry X-User-ID, and
// unidentified requests fall back to the configured default user.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sebkrier/alexandria-sub000/extract"
	"github.com/sebkrier/alexandria-sub000/process"
	"github.com/sebkrier/alexandria-sub000/query"
	"github.com/sebkrier/alexandria-sub000/queue"
	"github.com/sebkrier/alexandria-sub000/secrets"
	"github.com/sebkrier/alexandria-sub000/storage"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

// Server holds every dependency the controllers need.
type Server struct {
	store       *store.Store
	extractor   *extract.Router
	processor   *process.Service
	querySvc    *query.Service
	queue       queue.Queue
	blobs       storage.BlobStore
	cipher      *secrets.Cipher
	defaultUser uuid.UUID
}

// Config wires a Server. All fields are required except Blobs, which may
// be nil when PDF upload is disabled.
type Config struct {
	Store       *store.Store
	Extractor   *extract.Router
	Processor   *process.Service
	Query       *query.Service
	Queue       queue.Queue
	Blobs       storage.BlobStore
	Cipher      *secrets.Cipher
	DefaultUser uuid.UUID
}

func NewServer(cfg Config) *Server {
	return &Server{
		store:       cfg.Store,
		extractor:   cfg.Extractor,
		processor:   cfg.Processor,
		querySvc:    cfg.Query,
		queue:       cfg.Queue,
		blobs:       cfg.Blobs,
		cipher:      cfg.Cipher,
		defaultUser: cfg.DefaultUser,
	}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	g := r.Group("/api")
	g.POST("/articles", s.handleIngestArticle)
	g.GET("/articles/:id", s.handleGetArticle)
	g.GET("/articles/:id/status", s.handleArticleStatus)
	g.POST("/articles/:id/reanalyze", s.handleReanalyzeArticle)
	g.POST("/articles/reanalyze", s.handleBulkReanalyze)
	g.POST("/articles/:id/summary/regenerate", s.handleRegenerateSummary)
	g.POST("/ask", s.handleAsk)
	g.POST("/taxonomy/replace", s.handleReplaceTaxonomy)
	g.GET("/taxonomy", s.handleGetTaxonomy)
	g.GET("/providers", s.handleListProviders)
	g.POST("/providers", s.handleCreateProvider)
	g.POST("/providers/:id/test", s.handleTestProvider)
	g.DELETE("/providers/:id", s.handleDeleteProvider)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// userID resolves the acting user from the X-User-ID header.
func (s *Server) userID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		if s.defaultUser != uuid.Nil {
			return s.defaultUser, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-User-ID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var status int
	var cfgErr *types.ProviderConfigurationError
	var extractErr *types.ExtractionError

	switch {
	case errors.Is(err, store.ErrAlreadyProcessing):
		status = http.StatusConflict
	case errors.As(err, &cfgErr):
		status = http.StatusPreconditionFailed
	case errors.As(err, &extractErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
