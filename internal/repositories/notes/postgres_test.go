package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowColumns = []string{"id", "username", "keyword", "type", "text", "media_ref", "caption", "group_name", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT INTO notes \(username, keyword, type, text, media_ref, caption, group_name\).*RETURNING id, created_at`).
		WithArgs("alice", "recipe", "text",
			sql.NullString{String: "flour", Valid: true}, sql.NullString{}, sql.NullString{},
			sql.NullString{String: "cooking", Valid: true}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), created))

	note, err := repo.Create(context.Background(), &models.NewNote{
		UserName: "alice", Keyword: "recipe", Type: models.NoteTypeText, Text: "flour", Group: "cooking",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), note.ID)
	assert.Equal(t, created, note.CreatedAt)
	assert.Equal(t, "cooking", note.Group)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Create_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO notes`).WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err := repo.Create(context.Background(), &models.NewNote{UserName: "alice", Keyword: "k", Type: models.NoteTypeText})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	mock.ExpectQuery(`INSERT INTO notes`).WillReturnError(errors.New("boom"))
	_, err = repo.Create(context.Background(), &models.NewNote{UserName: "alice", Keyword: "k", Type: models.NoteTypeText})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgres_GetByKeyword(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `FROM notes WHERE username = \$1 AND lower\(keyword\) = lower\(\$2\)$`

	mock.ExpectQuery(q).WithArgs("alice", "pic").
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow(int64(3), "alice", "pic", "photo", nil, "media/1", "sunset", nil, time.Now()))
	note, err := repo.GetByKeyword(context.Background(), "alice", "pic")
	require.NoError(t, err)
	assert.Equal(t, models.NoteTypePhoto, note.Type)
	assert.Equal(t, "media/1", note.MediaRef)
	assert.Equal(t, "sunset", note.Caption)
	assert.Empty(t, note.Text)
	assert.Empty(t, note.Group)

	mock.ExpectQuery(q).WithArgs("alice", "none").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByKeyword(context.Background(), "alice", "none")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_GetByKeyword_UnknownType(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM notes`).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow(int64(3), "alice", "x", "sticker", nil, nil, nil, nil, time.Now()))
	_, err := repo.GetByKeyword(context.Background(), "alice", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown note type")
}

func TestPostgres_Search(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE username = \$1 AND group_name IS NULL AND \(lower\(text\) LIKE \$2 .* ORDER BY id DESC$`).
		WithArgs("alice", `%50\%%`, `%50\%%`, `%50\%%`).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow(int64(2), "alice", "b", "text", "50% off", nil, nil, nil, time.Now()).
			AddRow(int64(1), "alice", "a", "text", "save 50%", nil, nil, nil, time.Now()))

	notes, err := repo.Search(context.Background(), "alice", "50%", common.Ungrouped)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, int64(2), notes[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteOps(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(`^DELETE FROM notes WHERE username = \$1 AND id = \$2$`).WithArgs("alice", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.DeleteByID(ctx, "alice", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`^DELETE FROM notes WHERE username = \$1 AND id IN \(\$2, \$3\)$`).WithArgs("alice", int64(7), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.DeleteByIDs(ctx, "alice", []int64{7, 9})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteByIDs(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Zero(t, n, "no statement for an empty id list")

	mock.ExpectExec(`^DELETE FROM notes WHERE username = \$1 AND id IN \(\$2\)$`).WithArgs("alice", int64(1)).
		WillReturnError(errors.New("locked"))
	_, err = repo.DeleteByIDs(ctx, "alice", []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Groups(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT DISTINCT group_name FROM notes.*ORDER BY group_name`).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"group_name"}).AddRow("cooking").AddRow("work"))
	groups, err := repo.Groups(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cooking", "work"}, groups)
}
