// Package infra watches the external services the studio depends on.
package infra

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
)

// HealthChecker is implemented by image and text backends.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BackendMonitor periodically health-checks one backend and remembers the
// outcome for status reporting.
type BackendMonitor struct {
	name     string
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	status    Status
	lastError string
	checkedAt time.Time
}

// Report is a point-in-time view of a backend's health.
type Report struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
}

func NewBackendMonitor(name string, checker HealthChecker, interval time.Duration, logger *zap.Logger) *BackendMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &BackendMonitor{
		name:     name,
		checker:  checker,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger,
		status:   StatusUnknown,
	}
}

// Check runs one health check and records the result.
func (m *BackendMonitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.checker.HealthCheck(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.status
	m.checkedAt = time.Now()
	if err != nil {
		m.status = StatusUnavailable
		m.lastError = err.Error()
	} else {
		m.status = StatusReady
		m.lastError = ""
	}

	if prev != m.status {
		m.logger.Info("backend status changed",
			zap.String("backend", m.name),
			zap.String("from", string(prev)),
			zap.String("to", string(m.status)),
			zap.String("error", m.lastError),
		)
	}
	return m.status
}

// Run checks immediately and then on every interval until ctx is done.
func (m *BackendMonitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *BackendMonitor) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Report{
		Name:      m.name,
		Status:    m.status,
		Error:     m.lastError,
		CheckedAt: m.checkedAt,
	}
}
