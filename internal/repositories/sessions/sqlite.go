package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, externalID int64, userName string) error {
	query := `insert into sessions (external_id, username, created_at) values (?, ?, ?)
		on conflict (external_id) do update set username = excluded.username, created_at = excluded.created_at`

	if _, err := r.db.ExecContext(ctx, query, externalID, userName, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, externalID int64) (*models.Session, error) {
	query := `select external_id, username, created_at from sessions where external_id = ?`

	var created int64
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(&s.ExternalID, &s.UserName, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	return s, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, externalID int64) error {
	if _, err := r.db.ExecContext(ctx, `delete from sessions where external_id = ?`, externalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userName string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `delete from sessions where username = ? collate nocase`, userName)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
