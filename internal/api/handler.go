// Package api serves the trip engine and the optimizer over HTTP.
package api

import (
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/cxd309/trip-engine/internal/codec"
	"github.com/cxd309/trip-engine/internal/config"
	"github.com/cxd309/trip-engine/internal/engine"
	"github.com/cxd309/trip-engine/internal/optimizer"
	"github.com/cxd309/trip-engine/internal/snapshot"
)

type Handler struct {
	mu  sync.RWMutex
	cfg config.EngineConfig
	log *zap.SugaredLogger
}

func NewHandler(cfg config.EngineConfig, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{cfg: cfg, log: logger}
}

// SetEngineConfig replaces the engine settings used by later requests.
func (h *Handler) SetEngineConfig(cfg config.EngineConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
}

func (h *Handler) engineConfig() config.EngineConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// NewRouter registers every route under /v1. A "*" in origins allows any
// origin; an empty list disables CORS headers.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog)

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		if slices.Contains(origins, "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = origins
		}
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		r.Use(cors.New(corsConfig))
	}

	api := r.Group("/v1")
	{
		api.GET("/health", h.Health)
		api.POST("/trip/run", h.RunTrip)
		api.POST("/optimizer", h.Optimize)
		api.POST("/snapshot", h.TakeSnapshot)
		api.POST("/snapshot/diff", h.DiffSnapshot)
	}
	return r
}

func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Infow("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}

// render writes resp as JSON, or as MessagePack when format=msgpack is given.
func (h *Handler) render(c *gin.Context, status int, resp apiResponse) {
	if c.Query("format") != codec.MsgPack {
		c.JSON(status, resp)
		return
	}
	data, err := codec.Marshal(codec.MsgPack, resp)
	if err != nil {
		h.log.Errorw("msgpack encoding failed", "error", err)
		c.JSON(http.StatusInternalServerError, fail(errInternalServer, err.Error()))
		return
	}
	c.Data(status, codec.ContentType(codec.MsgPack), data)
}

func (h *Handler) Health(c *gin.Context) {
	h.render(c, http.StatusOK, success(gin.H{"status": "ok"}))
}

// RunTrip simulates a trip. The step query parameter overrides step_m, and
// the configured default step applies when neither is given.
func (h *Handler) RunTrip(c *gin.Context) {
	var req engine.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnw("bad trip request", "error", err)
		h.render(c, http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	if s := c.Query("step"); s != "" {
		step, err := cast.ToFloat64E(s)
		if err != nil || step <= 0 {
			h.render(c, http.StatusBadRequest, fail(errBadRequest, "step must be a positive number"))
			return
		}
		req.Input.Step = step
	}
	h.engineConfig().ApplyTo(&req.Input)

	result, err := engine.Simulate(req, engine.WithLogger(h.log))
	if err != nil {
		var cfgErr *engine.ConfigError
		if errors.As(err, &cfgErr) {
			h.render(c, http.StatusBadRequest, fail(errInvalidInput, err.Error()))
			return
		}
		h.log.Errorw("trip failed", "error", err)
		h.render(c, http.StatusInternalServerError, fail(errInternalServer, err.Error()))
		return
	}
	h.log.Infow("trip finished", "run_id", result.RunID, "steps", len(result.Steps), "warnings", len(result.Warnings))
	h.render(c, http.StatusOK, success(result))
}

func (h *Handler) Optimize(c *gin.Context) {
	var req optimizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.render(c, http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	res, err := optimizer.Solve(req)
	switch {
	case errors.Is(err, optimizer.ErrInfeasible):
		h.render(c, http.StatusUnprocessableEntity, fail(errInfeasible, err.Error()))
	case err != nil:
		h.render(c, http.StatusBadRequest, fail(errInvalidInput, err.Error()))
	default:
		h.render(c, http.StatusOK, success(res))
	}
}

// TakeSnapshot freezes the inputs of a trip request.
func (h *Handler) TakeSnapshot(c *gin.Context) {
	var req engine.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.render(c, http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	snap, err := snapshot.FromRequest(req)
	if err != nil {
		h.render(c, http.StatusBadRequest, fail(errInvalidInput, err.Error()))
		return
	}
	h.render(c, http.StatusOK, success(snap))
}

func (h *Handler) DiffSnapshot(c *gin.Context) {
	var req diffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.render(c, http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	changes := snapshot.Diff(req.Frozen, req.Current)
	h.render(c, http.StatusOK, success(diffResponse{Stale: len(changes) > 0, Changes: changes}))
}
