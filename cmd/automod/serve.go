package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/engine"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/fyrsmithlabs/automod/internal/telemetry"
	"github.com/fyrsmithlabs/automod/internal/webhook"
	"github.com/fyrsmithlabs/automod/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and rule-engine workers",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "override global.yaml's listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg := logging.NewDefaultConfig()
	logger, err := logging.NewLogger(logCfg, nil)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	tel, err := telemetry.New(ctx, telemetry.NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(context.Background(), "telemetry shutdown error", zap.Error(err))
		}
	}()

	settings, err := config.LoadSettings(configDir)
	if err != nil {
		return fmt.Errorf("load global settings: %w", err)
	}
	addr := listenAddr
	if addr == "" {
		if len(settings.Listen) == 0 {
			return fmt.Errorf("no listen address configured in global.yaml and none given via --listen")
		}
		addr = settings.Listen[0]
	}

	registry := prometheus.NewRegistry()
	metrics := webhook.NewMetrics(registry)
	broadcaster, err := webhook.NewBroadcaster(logger, metrics)
	if err != nil {
		return fmt.Errorf("start broadcaster: %w", err)
	}
	defer broadcaster.Close()

	server, err := webhook.NewServer(logger, configDir, broadcaster, metrics, registry)
	if err != nil {
		return fmt.Errorf("create webhook server: %w", err)
	}

	subs, err := startWorkers(logger, settings, broadcaster)
	if err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "webhook server listening", zap.String("addr", addr))
		serverErrors <- server.Start(addr)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("webhook server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "webhook server shutdown error", zap.Error(err))
		return err
	}

	logger.Info(ctx, "server stopped gracefully")
	return nil
}

// startWorkers spawns one worker per (domain, username) configured under
// configDir, each subscribed to its domain's broadcast subject.
func startWorkers(logger *logging.Logger, settings *config.Settings, broadcaster *webhook.Broadcaster) ([]*nats.Subscription, error) {
	domains, err := config.ConfiguredDomains(configDir)
	if err != nil {
		return nil, fmt.Errorf("enumerate configured domains: %w", err)
	}

	var subs []*nats.Subscription
	for _, domain := range domains {
		usernames, err := config.ConfiguredUsernames(configDir, domain)
		if err != nil {
			return subs, fmt.Errorf("enumerate usernames for %s: %w", domain, err)
		}
		for _, username := range usernames {
			cfg, err := config.LoadConfig(configDir, domain, username)
			if err != nil {
				return subs, fmt.Errorf("load config for %s@%s: %w", username, domain, err)
			}
			rules, err := engine.Compile(cfg)
			if err != nil {
				return subs, fmt.Errorf("compile rules for %s@%s: %w", username, domain, err)
			}

			w := &worker.Worker{
				Domain:     domain,
				Username:   username,
				Rules:      rules,
				Settings:   settings,
				Reporter:   &engine.LogReporter{Logger: logger},
				Restricter: &engine.LogRestricter{Logger: logger},
				Logger:     logger,
			}
			sub, err := w.Start(broadcaster)
			if err != nil {
				return subs, fmt.Errorf("start worker for %s@%s: %w", username, domain, err)
			}
			subs = append(subs, sub)

			logger.Info(context.Background(), "worker started",
				zap.String("domain", domain),
				zap.String("username", username),
			)
		}
	}
	return subs, nil
}
