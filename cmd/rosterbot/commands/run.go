package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ebitsfc/rosterbot/internal/audit"
	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/ebitsfc/rosterbot/internal/discord"
	"github.com/ebitsfc/rosterbot/internal/gateway"
	"github.com/ebitsfc/rosterbot/internal/metrics"
	"github.com/ebitsfc/rosterbot/internal/roster"
	"github.com/ebitsfc/rosterbot/internal/transfer"
	"github.com/spf13/cobra"
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the rosterbot server",
		RunE:  runServer,
	}

	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dataDir := filepath.Dir(cfg.Registry.PlayersFile)
	recorder := metrics.NewRuntimeMetrics(dataDir)
	rosterSvc := roster.NewService(cfg.Registry.PlayersFile)

	bot := discord.New(cfg, rosterSvc)

	auditLogger := audit.NewLogger(bot, cfg.Transfer.TransferLogChannelID, audit.NewWriter(dataDir))
	transferSvc := transfer.NewService(cfg.Transfer, bot, bot, auditLogger, recorder)
	bot.AttachTransfers(transferSvc)

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start discord bot: %w", err)
	}

	errCh := make(chan error, 1)
	exportServer := gateway.New(cfg.Gateway, cfg.Registry, recorder)
	go func() {
		if err := exportServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("export server failed: %w", err)
		}
	}()

	fmt.Printf("Rosterbot running. Export server: http://%s\nPress Ctrl+C to stop.\n", exportServer.Addr())

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		slog.Error("server component failed", "error", runErr)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if pending := transferSvc.PendingCount(); pending > 0 {
		slog.Warn("shutting down with pending transfer requests", "count", pending)
	}
	if err := exportServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("export server shutdown failed", "error", err)
	}
	_ = bot.Stop(shutdownCtx)

	slog.Info("rosterbot stopped")
	return runErr
}
