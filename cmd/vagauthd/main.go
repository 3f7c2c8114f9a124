package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carconnectivity/vag-auth/pkg/auth"
	"github.com/carconnectivity/vag-auth/pkg/brand"
	"github.com/carconnectivity/vag-auth/pkg/config"
	"github.com/carconnectivity/vag-auth/pkg/logger"
	"github.com/carconnectivity/vag-auth/pkg/metrics"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	log.Info("vagauthd starting", "config", cfg.String())

	ctx := SetupGracefulShutdown(log)

	authenticator, registry, m, err := initializeAuth(cfg, log)
	if err != nil {
		log.Error("initialization failed", "err", err)
		os.Exit(1)
	}

	if err := StartServer(ctx, cfg, authenticator, registry, m, log); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}

// initializeAuth wires the brand strategy, persisted token state, the
// authenticator and the metrics registry together.
func initializeAuth(cfg *config.Config, log *logger.Logger) (*auth.Authenticator, *prometheus.Registry, *metrics.AuthMetrics, error) {
	strategy, ok := brand.All()[cfg.Brand]
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown brand: %s", cfg.Brand)
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewAuthMetrics(registry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	stored, err := loadTokenFile(cfg.TokenPath)
	if err != nil {
		log.Warn("could not load persisted tokens, starting fresh",
			"path", cfg.TokenPath, "err", err)
	}

	authenticator := auth.New(strategy, auth.Config{
		Credentials: auth.Credentials{Email: cfg.Email, Password: cfg.Password},
		TokenStore:  stored,
		SPin:        cfg.SPin,
	}, log)

	// Persist every new token set so a restart can skip the login flow.
	authenticator.OnSettingsUpdate(func(s auth.Settings) {
		if err := saveTokenFile(cfg.TokenPath, &s.Tokens); err != nil {
			log.Error("failed to persist tokens", "path", cfg.TokenPath, "err", err)
			return
		}
		m.RecordAuthenticationSuccess(cfg.Brand)
		log.Debug("tokens persisted", "path", cfg.TokenPath)
	})

	// Authenticate once up front so misconfigured credentials fail fast.
	start := time.Now()
	authCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := authenticator.Authenticate(authCtx); err != nil {
		m.IncAuthenticationErrors(cfg.Brand)
		return nil, nil, nil, fmt.Errorf("initial authentication failed: %w", err)
	}
	m.ObserveLoginDuration(cfg.Brand, time.Since(start))
	m.SetTokenValid(cfg.Brand, true)
	log.Info("initial authentication complete", "brand", cfg.Brand, "user", authenticator.UserID())

	return authenticator, registry, m, nil
}
