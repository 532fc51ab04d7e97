package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rpggio/arcview/internal/app"
	"github.com/rpggio/arcview/internal/config"
)

func serveCommand(e *env, f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP tools, or MCP over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := openStores(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			deps := app.Deps{Documents: s.documents, Activity: s.activity}
			if e.cfg.Metrics.Enabled {
				deps.Registry = prometheus.NewRegistry()
			}
			a, err := app.New(e.cfg, deps, e.logger)
			if err != nil {
				return err
			}
			retention := time.Duration(e.cfg.Activity.RetentionDays) * 24 * time.Hour
			if _, err := a.Activity.Prune(ctx, retention); err != nil {
				e.logger.Warn("failed to prune activity log", "error", err)
			}

			mcpServer := a.MCPServer(version)

			if e.cfg.Transport.Mode == config.TransportStdio {
				return runStdio(ctx, e.logger, mcpServer)
			}
			go a.ExpireViewers(ctx, 5*time.Minute)
			return runHTTP(ctx, e.logger, e.cfg, a.Handler(mcpServer))
		},
	}
	cmd.Flags().StringVar(&f.transport, "transport", "", "transport: http or stdio")
	return cmd
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, cfg config.Config, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "backend", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
