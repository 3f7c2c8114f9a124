package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carconnectivity/vag-auth/pkg/auth"
	"github.com/carconnectivity/vag-auth/pkg/config"
	"github.com/carconnectivity/vag-auth/pkg/logger"
	"github.com/carconnectivity/vag-auth/pkg/metrics"
)

// StartServer starts the HTTP server with metrics and health endpoints and
// runs the periodic token validity probe until ctx is cancelled.
func StartServer(
	ctx context.Context,
	cfg *config.Config,
	authenticator *auth.Authenticator,
	registry *prometheus.Registry,
	m *metrics.AuthMetrics,
	log *logger.Logger,
) error {
	mux := http.NewServeMux()

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Timeout:           10 * time.Second,
	})
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/health", handleHealth(authenticator))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  65 * time.Second,
	}

	go runProbe(ctx, cfg, authenticator, m, log)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr)
		log.Info("Metrics endpoint available", "url", fmt.Sprintf("http://localhost:%d/metrics", cfg.Port))
		log.Info("Health endpoint available", "url", fmt.Sprintf("http://localhost:%d/health", cfg.Port))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}

		log.Info("HTTP server stopped")
		return nil
	}
}

// runProbe periodically checks the held token and updates the validity and
// expiry metrics. It re-authenticates when the token has gone stale so the
// daemon always holds a usable token.
func runProbe(ctx context.Context, cfg *config.Config, authenticator *auth.Authenticator, m *metrics.AuthMetrics, log *logger.Logger) {
	ticker := time.NewTicker(time.Duration(cfg.ProbeInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		token := authenticator.Token()
		valid := !token.IsExpired(time.Now())
		m.SetTokenValid(cfg.Brand, valid)
		if token != nil {
			m.SetTokenExpiry(cfg.Brand, time.Until(time.Unix(token.ExpiresAt, 0)))
		}
		if valid {
			continue
		}

		log.Info("token stale, re-authenticating", "brand", cfg.Brand)
		start := time.Now()
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		_, err := authenticator.Authenticate(probeCtx)
		cancel()
		if err != nil {
			m.IncAuthenticationErrors(cfg.Brand)
			log.Error("re-authentication failed", "brand", cfg.Brand, "err", err)
			continue
		}
		if authenticator.LastRefreshError() != nil {
			m.IncRefreshFallbacks(cfg.Brand)
		}
		m.ObserveLoginDuration(cfg.Brand, time.Since(start))
		m.SetTokenValid(cfg.Brand, true)
	}
}

// handleHealth reports daemon health including token state.
func handleHealth(authenticator *auth.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		token := authenticator.Token()
		if token.IsExpired(time.Now()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded","token":"expired"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","token":"valid"}`))
	}
}

// SetupGracefulShutdown sets up signal handlers for graceful shutdown
// Returns a context that is cancelled on interrupt or termination signal
func SetupGracefulShutdown(log *logger.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("Received signal", "signal", sig.String())
		cancel()
	}()

	return ctx
}
