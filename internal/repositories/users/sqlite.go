package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/models"
)

// SQLiteRepository matches names on users.username_key, the name lowercased
// in Go. SQLite's own NOCASE and lower() fold ASCII only.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()

	query := `INSERT INTO users (username, username_key, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.UserName, nameKey(user.UserName), user.PasswordHash, now.UnixMilli())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, userName string) (*models.User, error) {
	query := `select username, password_hash, created_at from users where username_key = ?`

	var created int64
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, nameKey(userName)).Scan(&user.UserName, &user.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = time.UnixMilli(created).UTC()

	return user, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userName string) error {
	result, err := r.db.ExecContext(ctx, `delete from users where username_key = ?`, nameKey(userName))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func nameKey(userName string) string {
	return strings.ToLower(userName)
}
