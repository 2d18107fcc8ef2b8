package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	clog "cosmossdk.io/log"
	"github.com/openalpha/fund-cycle/api/handlers"
	"github.com/openalpha/fund-cycle/api/middleware"
	"github.com/openalpha/fund-cycle/api/types"
	"github.com/openalpha/fund-cycle/api/websocket"
	"github.com/openalpha/fund-cycle/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	mockMode   bool

	// Services
	fundService   types.FundService
	cycleService  types.CycleService
	engineService types.EngineService

	// Handlers
	fundHandler    *handlers.FundHandler
	accountHandler *handlers.AccountHandler
	engineHandler  *handlers.EngineHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MockMode:     false,
	}
}

// NewServer creates a new API server backed by the mock service
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	mockService := NewMockService()
	return NewServerWithServices(config, mockService, mockService, mockService)
}

// NewServerWithServices creates a new API server with custom services
func NewServerWithServices(config *Config, fundSvc types.FundService, cycleSvc types.CycleService, engineSvc types.EngineService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:        config,
		wsServer:      websocket.NewServer(wsConfig),
		mockMode:      config.MockMode,
		fundService:   fundSvc,
		cycleService:  cycleSvc,
		engineService: engineSvc,
		rateLimiter:   rateLimiter,
	}

	s.fundHandler = handlers.NewFundHandler(s.fundService, s.cycleService)
	s.accountHandler = handlers.NewAccountHandler(s.fundService)
	s.engineHandler = handlers.NewEngineHandler(s.engineService)

	return s
}

// NewServerWithKeeperService creates an API server running the real engine
// over an in-memory store
func NewServerWithKeeperService(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.MockMode = false

	logger := clog.NewNopLogger()
	keeperService, err := NewKeeperService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper service: %w", err)
	}

	return NewServerWithServices(config, keeperService, keeperService, keeperService), nil
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Fund and cycle read endpoints
	mux.HandleFunc("/v1/fund", s.fundHandler.HandleFund)
	mux.HandleFunc("/v1/cycle", s.fundHandler.HandleCycle)
	mux.HandleFunc("/v1/rates", s.fundHandler.HandleRates)
	mux.HandleFunc("/v1/stakers/top", s.fundHandler.HandleTopStakers)
	mux.HandleFunc("/v1/history/pool", s.fundHandler.HandleHistory)

	// Account and investment read endpoints
	mux.HandleFunc("/v1/accounts/", s.accountHandler.HandleAccount)
	mux.HandleFunc("/v1/investments/", s.accountHandler.HandleInvestment)
	mux.HandleFunc("/v1/commission/preview", s.accountHandler.HandleCommissionPreview)

	// Engine endpoints (state-changing)
	mux.HandleFunc("/v1/fund/deposit", s.engineHandler.HandleDeposit)
	mux.HandleFunc("/v1/fund/withdraw", s.engineHandler.HandleWithdraw)
	mux.HandleFunc("/v1/investments/open", s.engineHandler.HandleOpenInvestment)
	mux.HandleFunc("/v1/investments/close", s.engineHandler.HandleCloseInvestment)
	mux.HandleFunc("/v1/commission/redeem", s.engineHandler.HandleRedeemCommission)
	mux.HandleFunc("/v1/cycle/advance", s.engineHandler.HandleAdvancePhase)

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Apply middleware chain: CORS -> Metrics -> RateLimit -> Handler
	var handler http.Handler = metricsMiddleware(mux)
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	handler = corsMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Start state broadcaster
	go s.startStateBroadcaster()

	log.Printf("API server starting on %s (mock mode: %v)", addr, s.mockMode)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// startStateBroadcaster periodically polls the services and feeds the
// websocket hub with fund and cycle state updates
func (s *Server) startStateBroadcaster() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		if fund, err := s.fundService.GetFundState(ctx); err == nil {
			s.wsServer.BroadcastFundState(&websocket.FundStateMessage{
				PoolValue:        fund.PoolValue,
				CommissionPool:   fund.CommissionPool,
				ShareSupply:      fund.ShareSupply,
				ReputationSupply: fund.ReputationSupply,
				Timestamp:        fund.UpdatedAt,
			})
		}

		if cycle, err := s.cycleService.GetCycleState(ctx); err == nil {
			s.wsServer.BroadcastCycleState(&websocket.CycleMessage{
				CycleNumber:      cycle.CycleNumber,
				Phase:            cycle.Phase,
				PhaseStart:       cycle.PhaseStart,
				ReputationPaused: cycle.ReputationPaused,
				Timestamp:        cycle.UpdatedAt,
			})
		}
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "keeper"
	if s.mockMode {
		mode = "mock"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      mode,
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Account-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.GetCollector().RecordAPIRequest(
			r.Method, r.URL.Path, strconv.Itoa(rec.status), timer.ElapsedMs(),
		)
	})
}
