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

// SQLiteRepository stores created_at as unix milliseconds.
//
// SQLite's lower() folds ASCII only, so case-insensitive keyword and search
// matching of non-ASCII text depends on the caller storing lowercased keywords.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, n *models.NewNote) (*models.Note, error) {
	now := time.Now().UTC()

	query := `insert into notes (username, keyword, type, text, media_ref, caption, group_name, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)
		returning id`

	note := &models.Note{
		UserName:  n.UserName,
		Keyword:   n.Keyword,
		Type:      n.Type,
		Text:      n.Text,
		MediaRef:  n.MediaRef,
		Caption:   n.Caption,
		Group:     n.Group,
		CreatedAt: time.UnixMilli(now.UnixMilli()).UTC(),
	}

	err := r.db.QueryRowContext(ctx, query, n.UserName, n.Keyword, string(n.Type),
		dbx.NullString(n.Text), dbx.NullString(n.MediaRef), dbx.NullString(n.Caption), dbx.NullString(n.Group),
		now.UnixMilli(),
	).Scan(&note.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *SQLiteRepository) GetByKeyword(ctx context.Context, userName, keyword string) (*models.Note, error) {
	query := `select ` + noteColumns + ` from notes where username = ? and lower(keyword) = lower(?)`

	note, err := scanSQLite(r.db.QueryRowContext(ctx, query, userName, keyword))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, userName string, id int64) (bool, error) {
	n, err := r.exec(ctx, `delete from notes where username = ? and id = ?`, userName, id)
	return n > 0, err
}

func (r *SQLiteRepository) List(ctx context.Context, userName, group string) ([]*models.Note, error) {
	b := newSelectBuilder(question, userName)
	b.group(group)
	return r.query(ctx, b)
}

func (r *SQLiteRepository) Search(ctx context.Context, userName, query, group string) ([]*models.Note, error) {
	b := newSelectBuilder(question, userName)
	b.group(group)
	b.contains(query)
	return r.query(ctx, b)
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, userName string, ids []int64) (int64, error) {
	return deleteIDs(ctx, r.exec, question, userName, ids)
}

func (r *SQLiteRepository) Groups(ctx context.Context, userName string) ([]string, error) {
	query := `select distinct group_name from notes where username = ? and group_name is not null order by group_name`
	return queryGroups(ctx, r.db, query, userName)
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
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

func (r *SQLiteRepository) query(ctx context.Context, b *selectBuilder) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, b.sql(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		note, err := scanSQLite(rows)
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

func scanSQLite(s scanner) (*models.Note, error) {
	var (
		row     noteRow
		created int64
	)
	if err := s.Scan(append(row.dest(), &created)...); err != nil {
		return nil, err
	}
	return row.build(time.UnixMilli(created).UTC())
}
