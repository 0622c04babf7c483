package notes

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.NewNote) (*models.Note, error) {
	query :=
		`INSERT INTO notes (username, keyword, type, text, media_ref, caption, group_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	note := &models.Note{
		UserName: n.UserName,
		Keyword:  n.Keyword,
		Type:     n.Type,
		Text:     n.Text,
		MediaRef: n.MediaRef,
		Caption:  n.Caption,
		Group:    n.Group,
	}

	err := r.db.QueryRowContext(ctx, query, n.UserName, n.Keyword, string(n.Type),
		dbx.NullString(n.Text), dbx.NullString(n.MediaRef), dbx.NullString(n.Caption), dbx.NullString(n.Group),
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) GetByKeyword(ctx context.Context, userName, keyword string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE username = $1 AND lower(keyword) = lower($2)`

	note, err := scanPostgres(r.db.QueryRowContext(ctx, query, userName, keyword))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, userName string, id int64) (bool, error) {
	n, err := r.exec(ctx, `DELETE FROM notes WHERE username = $1 AND id = $2`, userName, id)
	return n > 0, err
}

func (r *PostgresRepository) List(ctx context.Context, userName, group string) ([]*models.Note, error) {
	b := newSelectBuilder(dollar, userName)
	b.group(group)
	return r.query(ctx, b)
}

func (r *PostgresRepository) Search(ctx context.Context, userName, query, group string) ([]*models.Note, error) {
	b := newSelectBuilder(dollar, userName)
	b.group(group)
	b.contains(query)
	return r.query(ctx, b)
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, userName string, ids []int64) (int64, error) {
	return deleteIDs(ctx, r.exec, dollar, userName, ids)
}

func (r *PostgresRepository) Groups(ctx context.Context, userName string) ([]string, error) {
	query :=
		`SELECT DISTINCT group_name FROM notes
		 WHERE username = $1 AND group_name IS NOT NULL
		 ORDER BY group_name`

	return queryGroups(ctx, r.db, query, userName)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, b *selectBuilder) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, b.sql(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		note, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgres(s scanner) (*models.Note, error) {
	var (
		row     noteRow
		created time.Time
	)
	if err := s.Scan(append(row.dest(), &created)...); err != nil {
		return nil, err
	}
	return row.build(created)
}

func queryGroups(ctx context.Context, db dbx.DBTX, query string, userName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, userName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return groups, nil
}
