package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/bjarke-xyz/ams-gateway/internal/repository"
	"github.com/joho/godotenv"
)

func MigrateCmd(ctx context.Context, direction string) error {
	godotenv.Load()
	logger := newLogger("ams-migrate")
	version, err := repository.Migrate(direction, os.Getenv("DATABASE_CONNECTION_POOL_URL"))
	if err != nil {
		return fmt.Errorf("error migrating %v: %w", direction, err)
	}
	logger.InfoContext(ctx, "migrated database", "direction", direction, "version", version)
	return nil
}
