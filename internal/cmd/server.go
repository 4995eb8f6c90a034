package cmd

import (
	"context"
	"fmt"
	"log/slog"

	serverPkg "github.com/bjarke-xyz/ams-gateway/internal/server"
	"github.com/joho/godotenv"
)

// ServerCmd runs the AMS query endpoint on top of postgres.
func ServerCmd(ctx context.Context) error {
	godotenv.Load()
	port := envInt("PORT", 9090)
	metricsPort := envInt("METRICS_PORT", 9091)
	logger := newLogger("ams-server")

	pool, err := newDatabasePool(ctx, logger, 16)
	if err != nil {
		return fmt.Errorf("error creating db pool: %w", err)
	}
	defer pool.Close()

	server := serverPkg.NewServer(ctx, logger, pool)
	srv := server.Server(port)

	go serveMetrics(logger, metricsPort)

	go func() {
		_ = srv.ListenAndServe()
	}()
	logger.Info("started server", slog.Int("port", port))
	<-ctx.Done()
	_ = srv.Shutdown(context.Background())
	return nil
}
