package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type postgresAppRepository struct {
	conn Connection
}

func NewPostgresApp(conn Connection) domain.ApplicationRepository {
	return &postgresAppRepository{conn: conn}
}

// GetByID implements domain.ApplicationRepository.
func (p *postgresAppRepository) GetByID(ctx context.Context, id string) (domain.Application, error) {
	var app domain.Application
	rows, err := p.conn.Query(ctx, "SELECT * FROM applications WHERE application_id = $1", id)
	if err != nil {
		return app, err
	}
	err = pgxscan.ScanOne(&app, rows)
	if err != nil {
		if pgxscan.NotFound(err) {
			return app, domain.ErrNotFound
		}
		return app, err
	}
	return app, nil
}

// ListPage implements domain.ApplicationRepository. Rows come oldest first
// so that a client inserting each unseen row at the front ends up newest
// first. application_id is compared bytewise to match the client cursor.
func (p *postgresAppRepository) ListPage(ctx context.Context, req domain.GetApplicationsRequest) ([]domain.Application, error) {
	apps := make([]domain.Application, 0)
	query := `
		SELECT * FROM applications
		WHERE $1::bigint IS NULL
			OR created_at > $1
			OR ($2::text IS NOT NULL AND created_at = $1 AND application_id COLLATE "C" > $2)
		ORDER BY created_at ASC, application_id COLLATE "C" ASC
		LIMIT $3`
	err := pgxscan.Select(ctx, p.conn, &apps, query, req.CreatedAfter, req.AfterID, req.Limit)
	if err != nil {
		return apps, err
	}
	return apps, nil
}

// Create implements domain.ApplicationRepository.
func (p *postgresAppRepository) Create(ctx context.Context, app *domain.Application) error {
	if app.CreatedAt == 0 {
		app.CreatedAt = time.Now().UnixMicro()
	}
	query := `
		INSERT INTO applications (application_id, application_type, creator, application_name, owner, chain_id,
			logo_store_type, logo, description, twitter, telegram, discord, website, github, spec, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := p.conn.Exec(ctx, query,
		app.ApplicationID, app.ApplicationType, app.Creator, app.ApplicationName, app.Owner, app.ChainID,
		app.LogoStoreType, app.Logo, app.Description, app.Twitter, app.Telegram, app.Discord, app.Website,
		app.Github, app.Spec, app.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return err
}
