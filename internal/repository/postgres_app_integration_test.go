//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Postgres: go test -tags integration ./internal/repository
func TestIntegrationPostgresApp(t *testing.T) {
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("DATABASE_CONNECTION_POOL_URL")
	if dsn == "" {
		t.Skip("DATABASE_CONNECTION_POOL_URL not set; skipping Postgres integration")
	}
	_, err := Migrate("up", dsn)
	require.NoError(t, err)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	// Each run writes into a transaction that is rolled back.
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	repo := NewPostgresApp(tx)

	base := time.Now().UnixMicro()
	owner := "chain:owner"
	for i := 0; i < 3; i++ {
		app := domain.Application{
			ApplicationID: fmt.Sprintf("it-%d-%d", base, i),
			ChainID:       "chain",
			Owner:         &owner,
			Spec:          `{"name":"Doge","ticker":"DOGE"}`,
			CreatedAt:     base + int64(i),
		}
		require.NoError(t, repo.Create(ctx, &app))
	}

	// a failed insert aborts the surrounding transaction, so it gets a savepoint
	sp, err := tx.Begin(ctx)
	require.NoError(t, err)
	dup := domain.Application{ApplicationID: fmt.Sprintf("it-%d-0", base), ChainID: "chain"}
	assert.ErrorIs(t, NewPostgresApp(sp).Create(ctx, &dup), domain.ErrConflict)
	require.NoError(t, sp.Rollback(ctx))

	createdAfter := base
	apps, err := repo.ListPage(ctx, domain.GetApplicationsRequest{CreatedAfter: &createdAfter, Limit: 10})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, base+1, apps[0].CreatedAt)
	assert.Equal(t, base+2, apps[1].CreatedAt)

	// rows sharing a timestamp are paged by id
	tied := base + 10
	for _, suffix := range []string{"c", "a", "b"} {
		app := domain.Application{ApplicationID: fmt.Sprintf("it-%d-tie-%s", base, suffix), ChainID: "chain", CreatedAt: tied}
		require.NoError(t, repo.Create(ctx, &app))
	}
	page, err := repo.ListPage(ctx, domain.GetApplicationsRequest{CreatedAfter: &createdAfter, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, fmt.Sprintf("it-%d-tie-a", base), page[2].ApplicationID)
	page, err = repo.ListPage(ctx, domain.PageAfter(page[2], 3))
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, fmt.Sprintf("it-%d-tie-b", base), page[0].ApplicationID)
	assert.Equal(t, fmt.Sprintf("it-%d-tie-c", base), page[1].ApplicationID)

	got, err := repo.GetByID(ctx, fmt.Sprintf("it-%d-1", base))
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner, *got.Owner)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
