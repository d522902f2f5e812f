package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// ContextPinger is satisfied by the clinic store.
type ContextPinger interface {
	Ping(ctx context.Context) error
}

// Pinger is satisfied by ports.Cache.
type Pinger interface {
	Ping() error
}

// BreakerState is satisfied by circuitbreaker.Breaker.
type BreakerState interface {
	Name() string
	State() string
}

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. A failing store makes the
// service unready; a failing cache or an open breaker only degrades it.
type Config struct {
	Version  string
	Store    ContextPinger
	Cache    Pinger
	Breakers []BreakerState
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.Store != nil {
		store := config.Store
		s.RegisterChecker("database", func(ctx context.Context) CheckResult {
			return s.ping(ctx, "database", StatusUnhealthy, store.Ping)
		})
	}
	if config.Cache != nil {
		cache := config.Cache
		s.RegisterChecker("cache", func(ctx context.Context) CheckResult {
			return s.ping(ctx, "cache", StatusDegraded, func(context.Context) error { return cache.Ping() })
		})
	}
	for _, b := range config.Breakers {
		b := b
		s.RegisterChecker("breaker_"+b.Name(), func(ctx context.Context) CheckResult {
			return CheckBreaker(b)
		})
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready performs a comprehensive readiness check
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	// Run all checks concurrently
	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// ping runs fn and reports failure with the given status.
func (s *Service) ping(ctx context.Context, name string, onFailure Status, fn func(context.Context) error) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      name,
		Timestamp: start,
	}

	err := fn(ctx)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = onFailure
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

// CheckBreaker reports an open or half-open breaker as degraded.
func CheckBreaker(b BreakerState) CheckResult {
	result := CheckResult{
		Name:      "breaker_" + b.Name(),
		Status:    StatusHealthy,
		Message:   b.State(),
		Timestamp: time.Now(),
	}
	if b.State() != "closed" {
		result.Status = StatusDegraded
	}
	return result
}
