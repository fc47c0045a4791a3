// Package main serves the 88mph dashboard: protocol statistics, per-wallet
// deposit views, withdrawal batches and deposit quotes computed from the
// protocol subgraph.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/Bacon-labs/88mph-frontend/internal/circuitbreaker"
	"github.com/Bacon-labs/88mph-frontend/internal/config"
	"github.com/Bacon-labs/88mph-frontend/internal/dashboard"
	"github.com/Bacon-labs/88mph-frontend/internal/fee"
	"github.com/Bacon-labs/88mph-frontend/internal/fetch"
	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/otel"
	irate "github.com/Bacon-labs/88mph-frontend/internal/rate"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

var errNoSnapshot = errors.New("no snapshot available yet")

// maxQuoteDays is the longest lock whose duration fits in a time.Duration.
const maxQuoteDays = math.MaxInt64 / int64(24*time.Hour)

// Server holds the latest accepted protocol snapshot and serves views of it
type Server struct {
	cfg    config.Config
	client fetch.Client
	engine *dashboard.Engine

	// Guards refreshes against anomalous snapshots
	breaker *circuitbreaker.CircuitBreaker

	metrics   *serverMetrics
	rateLimit *rate.Limiter
	now       func() time.Time

	mu          sync.RWMutex
	snapshot    *model.Snapshot
	lastRefresh time.Time
	lastErr     error

	server *http.Server
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	registry        *prometheus.Registry
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshErrors   *prometheus.CounterVec
	circuitBreaker  prometheus.Gauge
	circuitTrips    prometheus.Counter
	aggregateRate   prometheus.Gauge
	aggregateTVL    prometheus.Gauge
	poolCount       prometheus.Gauge
}

// registerMetrics sets up Prometheus metrics collection on a dedicated registry
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		refreshErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_refresh_errors_total",
				Help: "Snapshot refreshes that failed or were rejected",
			},
			[]string{"reason"},
		),
		circuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		circuitTrips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_circuit_breaker_trips_total",
				Help: "Number of times the snapshot guard tripped",
			},
		),
		aggregateRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_one_year_interest_rate_percent",
				Help: "Best eligible pool's one-year rate after fees, in percent",
			},
		),
		aggregateTVL: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_total_value",
				Help: "Protocol total active deposit plus deficit",
			},
		),
		poolCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_pool_count",
				Help: "Number of pools in the latest snapshot",
			},
		),
	}

	m.registry.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.refreshErrors,
		m.circuitBreaker,
		m.circuitTrips,
		m.aggregateRate,
		m.aggregateTVL,
		m.poolCount,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	shutdownTracing := otel.InitTracer(cfg)
	defer shutdownTracing()

	client := fetch.NewSubgraphClient(cfg.SubgraphURL, cfg.Pools.Addresses(), cfg.RequestTimeout)
	NewServer(cfg, client).Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// NewServer creates a server reading snapshots from client
func NewServer(cfg config.Config, client fetch.Client) *Server {
	m := registerMetrics()

	s := &Server{
		cfg:    cfg,
		client: client,
		engine: dashboard.New(dashboard.Options{
			Pools:            cfg.Pools,
			Excluded:         cfg.ExcludedPools,
			Model:            irate.NewModel(fee.New(cfg.ProtocolFee), cfg.UIRMultiplier),
			MinDepositPeriod: cfg.MinDepositPeriod,
			TokenDecimals:    cfg.TokenDecimals,
		}),
		metrics:   m,
		rateLimit: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		now:       time.Now,
	}

	s.breaker = circuitbreaker.New(circuitbreaker.Thresholds{
		MaxInterestRate:  cfg.MaxInterestRate,
		MaxDepositChange: cfg.MaxDepositChange,
		MinPools:         1,
	}).WithResetDelay(cfg.CircuitResetDelay).WithTripCallback(func(string) {
		m.circuitTrips.Inc()
	})

	logrus.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"subgraph":      cfg.SubgraphURL,
		"pools":         len(cfg.Pools),
		"excluded":      len(cfg.ExcludedPools),
		"protocol_fee":  cfg.ProtocolFee.String(),
		"poll_interval": cfg.PollInterval,
	}).Info("Server initialized")

	return s
}

// Start begins polling and serving, and blocks until a shutdown signal
func (s *Server) Start() {
	ctx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go s.poll(ctx)

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}

// routes builds the HTTP handler tree
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/stats", s.instrument("stats", s.handleStats))
	mux.HandleFunc("/user", s.instrument("user", s.handleUser))
	mux.HandleFunc("/withdrawals", s.instrument("withdrawals", s.handleWithdrawals))
	mux.HandleFunc("/quote", s.instrument("quote", s.handleQuote))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/circuit", s.handleCircuitStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return s.limit(mux)
}

// poll refreshes the protocol snapshot now and then every PollInterval
func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.refresh(ctx); err != nil {
			logrus.WithError(err).Warn("Refresh failed, keeping previous snapshot")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refresh fetches a protocol snapshot and installs it if the guard accepts it.
// A snapshot older than the installed one is discarded.
func (s *Server) refresh(ctx context.Context) error {
	ctx, span := otel.Tracer().Start(ctx, "refresh")
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	snap, err := s.client.Fetch(fetchCtx, nil)
	if err != nil {
		s.metrics.refreshErrors.WithLabelValues("fetch").Inc()
		return s.failRefresh(ctx, fmt.Errorf("fetch snapshot: %w", err))
	}
	span.SetAttributes(attribute.Int("pools", len(snap.Pools)))

	err = s.breaker.Check(snap)
	s.metrics.circuitBreaker.Set(float64(s.breaker.GetState()))
	if err != nil {
		s.metrics.refreshErrors.WithLabelValues("guard").Inc()
		return s.failRefresh(ctx, fmt.Errorf("snapshot rejected: %w", err))
	}

	s.mu.Lock()
	if s.snapshot != nil && snap.FetchedAt.Before(s.snapshot.FetchedAt) {
		s.mu.Unlock()
		logrus.WithField("fetched_at", snap.FetchedAt).Debug("Discarding superseded snapshot")
		return nil
	}
	s.snapshot = &snap
	s.lastRefresh = s.now()
	s.lastErr = nil
	s.mu.Unlock()

	view := s.engine.Compute(snap, s.now())
	s.metrics.aggregateRate.Set(view.Protocol.OneYearInterestRate.Float64())
	s.metrics.aggregateTVL.Set(view.Protocol.TotalValue.Float64())
	s.metrics.poolCount.Set(float64(len(view.Pools)))

	logrus.WithFields(logrus.Fields{
		"pools":        len(snap.Pools),
		"active_users": snap.ActiveUsers,
		"rate":         view.Protocol.OneYearInterestRate.StringFixed(2),
		"best_pool":    view.Protocol.BestPoolName,
	}).Info("Snapshot refreshed")
	return nil
}

func (s *Server) failRefresh(ctx context.Context, err error) error {
	otel.RecordError(ctx, err)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// current returns the installed protocol snapshot
func (s *Server) current() (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return model.Snapshot{}, errNoSnapshot
	}
	return *s.snapshot, nil
}

// userSnapshot combines the installed protocol data with a fresh read of user's deposits
func (s *Server) userSnapshot(ctx context.Context, user common.Address) (model.Snapshot, error) {
	snap, err := s.current()
	if err != nil {
		return model.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	fresh, err := s.client.Fetch(ctx, &user)
	if err != nil {
		otel.RecordError(ctx, err)
		return model.Snapshot{}, fmt.Errorf("fetch user %s: %w", user.Hex(), err)
	}
	snap.User = fresh.User
	return snap, nil
}

// handleStats returns the protocol aggregate and per-pool views
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snap, err := s.current()
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	view := s.engine.Compute(snap, s.now())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"protocol":   view.Protocol,
		"pools":      view.Pools,
		"fetchedAt":  snap.FetchedAt,
		"computedAt": view.ComputedAt,
	})
}

// handleUser returns the connected wallet's deposits and totals
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.userRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Compute(snap, s.now()).User)
}

// handleWithdrawals returns the batched withdrawals for the wallet's matured deposits
func (s *Server) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.userRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"withdrawals": s.engine.Withdrawals(snap, s.now()),
	})
}

func (s *Server) userRequest(w http.ResponseWriter, r *http.Request) (model.Snapshot, bool) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return model.Snapshot{}, false
	}

	user, err := parseAddress(r.URL.Query().Get("address"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return model.Snapshot{}, false
	}

	snap, err := s.userSnapshot(r.Context(), user)
	switch {
	case errors.Is(err, errNoSnapshot):
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return model.Snapshot{}, false
	case err != nil:
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return model.Snapshot{}, false
	}
	return snap, true
}

// quoteRequest is the body of POST /quote
type quoteRequest struct {
	Pool   string  `json:"pool"`
	Amount num.Num `json:"amount"`
	Days   int64   `json:"days"`
}

// handleQuote prices a prospective deposit
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pool, err := parseAddress(req.Pool)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Days <= 0 || req.Days > maxQuoteDays {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d, got %d", maxQuoteDays, req.Days))
		return
	}

	snap, err := s.current()
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	quote, err := s.engine.Quote(snap, dashboard.QuoteRequest{
		Pool:   pool,
		Amount: req.Amount,
		Period: time.Duration(req.Days) * 24 * time.Hour,
	}, s.now())
	switch {
	case errors.Is(err, dashboard.ErrUnknownPool),
		errors.Is(err, dashboard.ErrInvalidAmount),
		errors.Is(err, dashboard.ErrLockTooShort):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasSnapshot := s.snapshot != nil
	lastRefresh := s.lastRefresh
	lastErr := s.lastErr
	s.mu.RUnlock()

	status := map[string]interface{}{
		"status":        "operational",
		"uptime":        time.Since(startTime).String(),
		"version":       "1.0.0",
		"has_snapshot":  hasSnapshot,
		"circuit_state": s.breaker.GetState().String(),
		"configuration": map[string]interface{}{
			"subgraph":      s.cfg.SubgraphURL,
			"pools":         s.cfg.Pools,
			"protocol_fee":  s.cfg.ProtocolFee,
			"poll_interval": s.cfg.PollInterval.String(),
		},
	}
	if !hasSnapshot {
		status["status"] = "starting"
	}
	if !lastRefresh.IsZero() {
		status["last_refresh"] = lastRefresh.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		status["last_error"] = lastErr.Error()
	}

	writeJSON(w, http.StatusOK, status)
}

// handleCircuitStatus allows viewing and controlling the circuit breaker
func (s *Server) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{}

	if r.Method == http.MethodPost {
		if r.URL.Query().Get("action") == "reset" {
			s.breaker.Reset()
			s.metrics.circuitBreaker.Set(float64(s.breaker.GetState()))
			response["message"] = "Circuit breaker reset"
		}
	}
	response["state"] = s.breaker.GetState().String()

	if last, ok := s.breaker.LastGood(); ok {
		response["last_good_pool_count"] = len(last.Pools)
		response["last_good_timestamp"] = last.FetchedAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, response)
}
