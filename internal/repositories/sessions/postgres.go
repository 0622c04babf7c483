package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, externalID int64, userName string) error {
	query :=
		`INSERT INTO sessions (external_id, username)
		 VALUES ($1, $2)
		 ON CONFLICT (external_id) DO UPDATE
		 SET username = EXCLUDED.username, created_at = now()`

	if _, err := r.db.ExecContext(ctx, query, externalID, userName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, externalID int64) (*models.Session, error) {
	query := `SELECT external_id, username, created_at FROM sessions WHERE external_id = $1`

	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(&s.ExternalID, &s.UserName, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, externalID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE external_id = $1`, externalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userName string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE lower(username) = lower($1)`, userName)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
