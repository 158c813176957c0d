package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config  *models.MConfig
	Service interfaces.IDashboardService
	Logger  *logger.Logger
	engine  *gin.Engine
	http    *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	broadcast   chan *models.MServerMessage
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	connections atomic.Int64
	hubOnce     sync.Once
	stopOnce    sync.Once

	// Cancelled on Stop so websocket computations end with the server
	ctx    context.Context
	cancel context.CancelFunc
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, service interfaces.IDashboardService, logger *logger.Logger) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &DashboardServer{
		Config:  cfg,
		Service: service,
		Logger:  logger,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so a burst of symbol updates never blocks a handler
		broadcast:  make(chan *models.MServerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// CORS for local tooling
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	s.engine.GET("/", s.getPage)

	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)
	api.GET("/symbols", s.getSymbols)
	api.PUT("/symbols", s.putSymbols)
	api.GET("/dashboard", s.getDashboard)
	api.GET("/simulate", s.getSimulation)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for httptest.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called. It returns nil on a clean shutdown.
func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting dashboard on http://%s", addr)

	s.startHub()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop drains HTTP requests, then closes every websocket client.
func (s *DashboardServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.cancel()
		if s.http != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.http.Shutdown(ctx)
		}
		close(s.done)
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) startHub() {
	s.hubOnce.Do(func() { go s.handleWebsockets() })
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.connections.Load(),
		"sources":     s.Service.SourceNames(),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -s.Config.DataSource.DefaultRangeDays)

	c.JSON(http.StatusOK, gin.H{
		"symbols":       s.Service.Symbols(),
		"default_start": start.Format(time.DateOnly),
		"default_end":   end.Format(time.DateOnly),
		"currency":      s.Config.Dashboard.Currency,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.Service.Symbols()})
}

// -----------------------------------------------------------------------------

type symbolsBody struct {
	Symbols []string `json:"symbols"`
}

func (s *DashboardServer) putSymbols(c *gin.Context) {
	var body symbolsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, requestError(err))
		return
	}
	if err := s.Service.UpdateSymbols(body.Symbols); err != nil {
		writeError(c, err)
		return
	}

	symbols := s.Service.Symbols()
	s.Broadcast(symbols)
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getDashboard(c *gin.Context) {
	var req models.MDashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, requestError(err))
		return
	}

	dashboard, err := s.Service.Compute(c.Request.Context(), req)
	if err != nil {
		s.Logger.Warning("Dashboard for %s failed: %v", req.Symbol, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getSimulation(c *gin.Context) {
	var req models.MDashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, requestError(err))
		return
	}

	sim, err := s.Service.Simulate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sim)
}
