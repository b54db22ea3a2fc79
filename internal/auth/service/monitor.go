package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
)

// SecurityMonitor periodically runs the short-window brute-force aggregate
// and reports flagged groups. It never locks accounts.
type SecurityMonitor struct {
	Security *LoginSecurityGuard
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

// NewSecurityMonitor creates a monitor. A non-positive interval defaults to
// five minutes.
func NewSecurityMonitor(security *LoginSecurityGuard, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *SecurityMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SecurityMonitor{
		Security: security,
		Logger:   logger,
		Metrics:  m,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Later calls do nothing.
func (s *SecurityMonitor) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
		s.Logger.Info("security monitor started", "interval", s.Interval)
	})
}

// Stop blocks until an in-progress scan has finished. It returns at once
// when the monitor never started, and repeat calls are no-ops.
func (s *SecurityMonitor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("security monitor stopped")
	})
}

func (s *SecurityMonitor) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Scan(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Scan runs one pass and returns the number of flagged groups.
func (s *SecurityMonitor) Scan(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	report, err := s.Security.BruteForceReport(ctx, "", DefaultBruteForceRange)
	if err != nil {
		s.Logger.Error("brute-force scan failed", "error", err)
		return 0
	}

	byIdentity, byIP := 0, 0
	for _, g := range report.Short.ByIdentity {
		if g.Flagged {
			byIdentity++
			s.Logger.Warn("possible brute force on identity",
				"identity", g.Key, "tenant", g.TenantSlug, "failures", g.Failures, "last_attempt", g.LastAttempt)
		}
	}
	for _, g := range report.Short.ByIP {
		if g.Flagged {
			byIP++
			s.Logger.Warn("possible brute force from ip",
				"ip", g.Key, "failures", g.Failures, "last_attempt", g.LastAttempt)
		}
	}

	s.Metrics.BruteForceAlerts("identity", byIdentity)
	s.Metrics.BruteForceAlerts("ip", byIP)
	if report.Alerts == 0 {
		s.Logger.Debug("brute-force scan clean")
	}
	return report.Alerts
}
