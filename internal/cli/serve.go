package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"londonstock/internal/audit"
	"londonstock/internal/auth"
	"londonstock/internal/httpapi"
	"londonstock/internal/ledger"
	"londonstock/internal/store"
	"londonstock/internal/valuation"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(app)
		},
	}
}

func runServe(app *App) error {
	cfg := app.Config
	logger := app.Logger

	tradeStore, err := openStore(app)
	if err != nil {
		return err
	}
	defer tradeStore.Close()

	validator := auth.NewValidator(cfg.Users)
	issuer := auth.NewIssuer(cfg.JWT)
	gate := auth.NewGate(cfg.JWT)
	tradeLedger := ledger.New(tradeStore, logger)
	engine := valuation.New(tradeStore, logger)

	auditLog, err := audit.NewLogger(audit.DefaultConfig())
	if err != nil {
		logger.Warn().Err(err).Msg("Audit logging unavailable")
		auditLog = nil
	}
	defer auditLog.Close()

	srv := httpapi.NewServer(validator, issuer, gate, tradeLedger, engine, auditLog, logger)

	server := &http.Server{Addr: ":" + cfg.Server.Port, Handler: srv.R}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

func openStore(app *App) (store.TradeStore, error) {
	switch app.Config.Database.Driver {
	case "memory":
		app.Logger.Debug().Msg("Using in-memory trade store")
		return store.NewMemoryStore(), nil
	default:
		s, err := store.NewSQLiteStore(app.Config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening trade store: %w", err)
		}
		app.Logger.Debug().Str("path", app.Config.Database.Path).Msg("SQLite trade store initialized")
		return s, nil
	}
}
