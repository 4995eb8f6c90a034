package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	serverPkg "github.com/bjarke-xyz/ams-gateway/internal/server"
	"github.com/bjarke-xyz/ams-gateway/internal/service"
	"github.com/bjarke-xyz/ams-gateway/internal/store"
	"github.com/joho/godotenv"
)

const watchRetryDelay = 5 * time.Second

// ClientCmd mirrors the registry into an in-memory store, keeps it current
// through the subscription and serves read-only views of it.
func ClientCmd(ctx context.Context) error {
	godotenv.Load()
	port := envInt("PORT", 8080)
	metricsPort := envInt("METRICS_PORT", 8081)
	pageSize := envInt("AMS_PAGE_SIZE", 40)
	amsURL := envString("AMS_URL", "http://localhost:9090/api/ams")
	amsWsURL := envString("AMS_WS_URL", "ws://localhost:9090/api/ams/ws")
	blobGatewayURL := envString("BLOB_GATEWAY_URL", "http://localhost:9092")
	apiHost := envString("AMS_API_HOST", "localhost:9090")
	logger := newLogger("ams-client")

	gateway := service.NewAmsGateway(logger, amsURL, amsWsURL)
	st := store.NewAmsStore(logger, gateway, service.NewBlobGateway(blobGatewayURL))

	synced, err := st.Sync(ctx, domain.GetApplicationsRequest{Limit: pageSize})
	if err != nil {
		logger.Error("initial sync failed", "error", err)
	}
	logger.Info("synced applications", "fetched", synced, "applications", st.Len())

	go serveMetrics(logger, metricsPort)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: serverPkg.StoreRoutes(logger, st, apiHost),
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	logger.Info("started client", slog.Int("port", port))

	go watch(ctx, logger, st, pageSize)

	<-ctx.Done()
	_ = srv.Shutdown(context.Background())
	return nil
}

// watch keeps a subscription open, reopening it after the newest application
// held whenever the stream ends. Watch pages in whatever was registered while
// the stream was down.
func watch(ctx context.Context, logger *slog.Logger, st *store.AmsStore, pageSize int) {
	for {
		err := st.Watch(ctx, st.NextPage(pageSize), func(failed bool, rows []domain.Application) {
			if !failed {
				logger.Info("merged streamed applications", "count", len(rows), "applications", st.Len())
			}
		})
		if errors.Is(err, domain.ErrStreamingUnsupported) {
			return
		}
		if err != nil && ctx.Err() == nil {
			logger.Error("watch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}
