package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

// StatusReporter exposes the load state of the dashboard data
type StatusReporter interface {
	Status() LoadStatus
}

// ClientCounter reports the number of connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	data      StatusReporter
	clients   ClientCounter
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. clients may be nil when the
// websocket endpoint is disabled.
func NewHealthService(version, buildTime string, data StatusReporter, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		data:      data,
		clients:   clients,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: hs.now(),
		Version:   hs.version,
	}
}

// ReadinessCheck is ready once a snapshot has been loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	data := hs.checkDataHealth()
	status := HealthStatus{
		Status:    "ready",
		Timestamp: hs.now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"data":      data,
			"websocket": hs.checkWebSocketHealth(),
		},
	}
	if data.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.String("reason", data.Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     hs.now().Sub(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{Status: "not_ready", Message: "dashboard service not configured"}
	}
	status := hs.data.Status()
	if !status.Loaded {
		msg := "dashboard data not loaded yet"
		if status.Error != "" {
			msg = status.Error
		}
		return ServiceHealth{Status: "not_ready", Message: msg}
	}
	if status.Error != "" {
		return ServiceHealth{Status: "ready", Message: "serving previous snapshot: " + status.Error}
	}
	return ServiceHealth{Status: "ready", Message: "snapshot " + status.Fingerprint[:min(12, len(status.Fingerprint))]}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "disabled"}
	}
	return ServiceHealth{Status: "ready", Message: pluralClients(hs.clients.ClientCount())}
}

func pluralClients(n int) string {
	if n == 1 {
		return "1 client connected"
	}
	return strconv.Itoa(n) + " clients connected"
}
