package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"onboarding/internal/catalog"
	"onboarding/internal/wizard"
	"onboarding/pkg/logger"
)

// SystemHandler exposes health and service-status endpoints.
type SystemHandler struct {
	store       *wizard.Store
	redisClient *redis.Client
	logger      logger.Logger
	startTime   time.Time
}

func NewSystemHandler(store *wizard.Store, redisClient *redis.Client, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		store:       store,
		redisClient: redisClient,
		logger:      log,
		startTime:   time.Now(),
	}
}

type ServiceStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"` // operational, degraded, outage
	LastUpdated string  `json:"lastUpdated"`
	Uptime      float64 `json:"uptime"`
	LatencyMs   int64   `json:"latency_ms"`
}

type SystemStatusResponse struct {
	Services []ServiceStatus `json:"services"`
}

// Health is the liveness probe.
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "supplier-onboarding",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"sessions":       h.store.Count(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// GetCountries returns the supported countries.
// GET /countries
func (h *SystemHandler) GetCountries(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"countries": catalog.Countries(),
	})
}

// GetSystemStatus reports per-dependency health.
// GET /system/status
func (h *SystemHandler) GetSystemStatus(w http.ResponseWriter, _ *http.Request) {
	services := []ServiceStatus{}

	// 1. Core API (Self)
	services = append(services, ServiceStatus{
		ID:          "core-api",
		Name:        "Onboarding API Service",
		Description: "Supplier registration wizard API",
		Status:      "operational",
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      100.0,
		LatencyMs:   0, // Self-check is instant
	})

	// 2. Redis
	redisStatus := "operational"
	redisStart := time.Now()
	err := h.redisClient.Ping(context.Background()).Err()
	redisLatency := time.Since(redisStart).Milliseconds()
	redisUptime := 100.0

	if err != nil {
		redisStatus = "outage"
		redisUptime = 0.0
		h.logger.Error("Redis ping failed", map[string]interface{}{"error": err.Error()})
	} else {
		if redisLatency > 50 {
			redisStatus = "degraded"
		}
	}

	services = append(services, ServiceStatus{
		ID:          "redis",
		Name:        "Redis Cache",
		Description: "Rate limiting and idempotency keys",
		Status:      redisStatus,
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      redisUptime,
		LatencyMs:   redisLatency,
	})

	h.respondJSON(w, http.StatusOK, SystemStatusResponse{Services: services})
}

func (h *SystemHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}
