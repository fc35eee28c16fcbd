package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/IBM/sarama"

	handler "github.com/raid-guild/x402-payment-gate-go/api"
	"github.com/raid-guild/x402-payment-gate-go/audit"
	"github.com/raid-guild/x402-payment-gate-go/auth"
	"github.com/raid-guild/x402-payment-gate-go/clients"
	"github.com/raid-guild/x402-payment-gate-go/config"
	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("payment gate stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run wires the gate and serves until ctx is cancelled. Resources opened
// along the way are released before it returns.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	db, store, err := buildAuditStore(ctx, cfg.Audit)
	if err != nil {
		return fmt.Errorf("create audit store: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	producer, err := buildKafkaProducer(cfg.Audit)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("closing kafka producer failed", "error", err)
			}
		}()
	}

	recorders := audit.Multi{audit.LogRecorder{Logger: logger}}
	if store != nil {
		recorders = append(recorders, store)
	}
	if producer != nil {
		recorders = append(recorders, audit.KafkaRecorder{Producer: producer, Topic: cfg.Audit.KafkaTopic})
	}

	facilitator, err := clients.NewFacilitator(clients.FacilitatorConfig{
		URL:     cfg.Gate.FacilitatorURL,
		APIKey:  cfg.Gate.FacilitatorAPIKey,
		Timeout: cfg.Gate.FacilitatorTimeout,
	})
	if err != nil {
		return fmt.Errorf("create facilitator client: %w", err)
	}

	prices, err := cfg.Gate.PriceTable()
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	var signatures *core.SignatureChecker
	if cfg.Gate.ChainID != 0 {
		signatures = &core.SignatureChecker{ChainID: cfg.Gate.ChainID}
	}

	gate, err := core.NewGate(prices, core.GateConfig{
		Facilitator: facilitator,
		Timeout:     cfg.Gate.FacilitatorTimeout,
		Signatures:  signatures,
		Recorder:    recorders,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create gate: %w", err)
	}

	operator := auth.Authenticator{StaticKey: cfg.Operator.APIKey}
	if operator.StaticKey == "" && db != nil {
		operator.DB = db
		operator.Driver = cfg.Audit.DBDriver
	}

	deps := handler.RouterDependencies{
		Gate:     gate,
		App:      newAgentMux(gate),
		Operator: operator,
	}
	if store != nil {
		deps.AuditStore = store
	}
	router := handler.NewRouter(logger, deps)

	srv := handler.NewServer(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("payment gate ready",
		"network", cfg.Gate.Network,
		"recipient", cfg.Gate.Recipient,
		"operations", len(prices.All()),
		"signature_check", signatures != nil,
	)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			serveErr = fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	return serveErr
}

// buildAuditStore opens the audit database when one is configured.
func buildAuditStore(ctx context.Context, cfg config.AuditConfig) (*sql.DB, *audit.SQLRecorder, error) {
	if cfg.DBDriver == "" {
		return nil, nil, nil
	}

	db, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping audit database: %w", err)
	}

	store, err := audit.NewSQLRecorder(db, cfg.DBDriver)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := store.InitSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init audit schema: %w", err)
	}
	return db, store, nil
}

func buildKafkaProducer(cfg config.AuditConfig) (sarama.SyncProducer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}
	return audit.NewKafkaProducer(cfg.KafkaBrokers)
}
