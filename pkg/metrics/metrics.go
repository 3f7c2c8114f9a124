// Package metrics exposes Prometheus metrics for the authentication daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics holds all Prometheus metrics describing token state and login
// flow health, labeled by brand.
type AuthMetrics struct {
	// Token validity gauge (1 = a non-expired token is held, 0 otherwise)
	TokenValid *prometheus.GaugeVec

	// Seconds until the held token expires (negative once past)
	TokenExpirySeconds *prometheus.GaugeVec

	// Full login flow duration histogram (in seconds)
	LoginDurationSeconds *prometheus.HistogramVec

	// Authentication error counter
	AuthenticationErrorsTotal *prometheus.CounterVec

	// Refresh attempts that failed and fell back to the full flow
	RefreshFallbacksTotal *prometheus.CounterVec

	// Last successful authentication timestamp (unix seconds)
	LastAuthenticationSuccessUnix *prometheus.GaugeVec

	// Build info gauge
	BuildInfo prometheus.Gauge
}

// NewAuthMetrics creates all daemon metrics and registers them with reg.
// Passing a fresh registry keeps tests independent of global state.
func NewAuthMetrics(reg prometheus.Registerer) (*AuthMetrics, error) {
	labels := []string{"brand"}

	m := &AuthMetrics{
		TokenValid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vag_auth_token_valid",
			Help: "Set to 1 if a non-expired token set is held for the brand, 0 otherwise",
		}, labels),

		TokenExpirySeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vag_auth_token_expiry_seconds",
			Help: "Seconds until the held token expires (negative once past)",
		}, labels),

		// Login flow buckets: 0.5s, 1s, 2s, 4s, 8s, 16s
		LoginDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vag_auth_login_duration_seconds",
			Help:    "Time taken to run the scripted login flow end to end in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 6),
		}, labels),

		AuthenticationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vag_auth_errors_total",
			Help: "Total number of failed authentication attempts",
		}, labels),

		RefreshFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vag_auth_refresh_fallbacks_total",
			Help: "Total number of refresh attempts that failed and fell back to the full login flow",
		}, labels),

		LastAuthenticationSuccessUnix: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vag_auth_last_success_unix",
			Help: "Unix timestamp of the last successful authentication",
		}, labels),

		BuildInfo: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vag_auth_build_info",
			Help: "Build information for the daemon (value is always 1)",
		}),
	}

	collectors := []prometheus.Collector{
		m.TokenValid,
		m.TokenExpirySeconds,
		m.LoginDurationSeconds,
		m.AuthenticationErrorsTotal,
		m.RefreshFallbacksTotal,
		m.LastAuthenticationSuccessUnix,
		m.BuildInfo,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	m.BuildInfo.Set(1)
	return m, nil
}

// SetTokenValid sets the validity gauge for a brand.
func (m *AuthMetrics) SetTokenValid(brand string, valid bool) {
	if valid {
		m.TokenValid.WithLabelValues(brand).Set(1)
	} else {
		m.TokenValid.WithLabelValues(brand).Set(0)
	}
}

// SetTokenExpiry records the remaining token lifetime for a brand.
func (m *AuthMetrics) SetTokenExpiry(brand string, remaining time.Duration) {
	m.TokenExpirySeconds.WithLabelValues(brand).Set(remaining.Seconds())
}

// ObserveLoginDuration records the duration of one full login flow.
func (m *AuthMetrics) ObserveLoginDuration(brand string, duration time.Duration) {
	m.LoginDurationSeconds.WithLabelValues(brand).Observe(duration.Seconds())
}

// IncAuthenticationErrors increments the error counter for a brand.
func (m *AuthMetrics) IncAuthenticationErrors(brand string) {
	m.AuthenticationErrorsTotal.WithLabelValues(brand).Inc()
}

// IncRefreshFallbacks counts a refresh failure that forced a full login.
func (m *AuthMetrics) IncRefreshFallbacks(brand string) {
	m.RefreshFallbacksTotal.WithLabelValues(brand).Inc()
}

// RecordAuthenticationSuccess records a successful authentication timestamp.
func (m *AuthMetrics) RecordAuthenticationSuccess(brand string) {
	m.LastAuthenticationSuccessUnix.WithLabelValues(brand).Set(float64(time.Now().Unix()))
}
