package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/referral-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP traffic, the referral
// cache and domain events.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	signups         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	schoolStatus    *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Observer
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_cache_lookups_total",
		Help: "Referral cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "referral_cache_read_seconds",
		Help:    "Latency of referral cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "referral_cache_write_seconds",
		Help:    "Latency of referral cache writes",
		Buckets: prometheus.DefBuckets,
	})

	signups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Successful registrations by role",
	}, []string{"role"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Login attempts by role and outcome",
	}, []string{"role", "outcome"})

	schoolStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "school_status_changes_total",
		Help: "School enable/disable operations",
	}, []string{"action"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_uploads_total",
		Help: "Video uploads by outcome",
	}, []string{"outcome"})

	uploadBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "video_upload_bytes",
		Help:    "Size of uploaded videos",
		Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10),
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLookups, cacheLatency, cacheWrite,
		signups, logins, schoolStatus, uploads, uploadBytes,
		collectors.NewGoCollector(),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		signups:         signups,
		logins:          logins,
		schoolStatus:    schoolStatus,
		uploads:         uploads,
		uploadBytes:     uploadBytes,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a referral cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSignup counts a completed registration.
func (m *MetricsService) RecordSignup(role models.Role) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(string(role)).Inc()
}

// RecordLogin counts a login attempt; outcome is "success" or an error code.
func (m *MetricsService) RecordLogin(role models.Role, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(string(role), outcome).Inc()
}

// RecordSchoolStatus counts an enable or disable.
func (m *MetricsService) RecordSchoolStatus(enabled bool) {
	if m == nil {
		return
	}
	action := "disable"
	if enabled {
		action = "enable"
	}
	m.schoolStatus.WithLabelValues(action).Inc()
}

// RecordUpload counts an upload attempt and, on success, its size.
func (m *MetricsService) RecordUpload(outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == "success" && size > 0 {
		m.uploadBytes.Observe(float64(size))
	}
}
