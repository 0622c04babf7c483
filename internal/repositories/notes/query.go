package notes

import (
	"context"
	"database/sql"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/models"
)

const noteColumns = `id, username, keyword, type, text, media_ref, caption, group_name, created_at`

type placeholder func(n int) string

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func question(int) string { return "?" }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching query literally anywhere.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

// deleteIDsBatch caps the ids bound in one DELETE statement.
const deleteIDsBatch = 500

func deleteByIDsQuery(ph placeholder, userName string, ids []int64) (string, []any) {
	args := make([]any, 0, len(ids)+1)
	args = append(args, userName)
	marks := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		marks[i] = ph(i + 2)
	}
	return "DELETE FROM notes WHERE username = " + ph(1) + " AND id IN (" + strings.Join(marks, ", ") + ")", args
}

type execFunc func(ctx context.Context, query string, args ...any) (int64, error)

func deleteIDs(ctx context.Context, exec execFunc, ph placeholder, userName string, ids []int64) (int64, error) {
	var total int64
	for chunk := range slices.Chunk(ids, deleteIDsBatch) {
		q, args := deleteByIDsQuery(ph, userName, chunk)
		n, err := exec(ctx, q, args...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// selectBuilder assembles the WHERE clause shared by List and Search.
type selectBuilder struct {
	ph    placeholder
	where []string
	args  []any
}

func newSelectBuilder(ph placeholder, userName string) *selectBuilder {
	b := &selectBuilder{ph: ph}
	b.add("username = %s", userName)
	return b
}

// add appends a condition; each %s in cond consumes one copy of arg.
func (b *selectBuilder) add(cond string, arg any) {
	n := strings.Count(cond, "%s")
	for i := 0; i < n; i++ {
		b.args = append(b.args, arg)
		cond = strings.Replace(cond, "%s", b.ph(len(b.args)), 1)
	}
	b.where = append(b.where, cond)
}

func (b *selectBuilder) group(group string) {
	switch {
	case common.IsAllGroups(group):
	case group == common.Ungrouped:
		b.where = append(b.where, "group_name IS NULL")
	default:
		b.add("group_name = %s", group)
	}
}

func (b *selectBuilder) contains(query string) {
	if query == "" {
		return
	}
	b.add(`(lower(text) LIKE %s ESCAPE '\' OR lower(caption) LIKE %s ESCAPE '\' OR lower(keyword) LIKE %s ESCAPE '\')`,
		containsPattern(query))
}

func (b *selectBuilder) sql() string {
	return "SELECT " + noteColumns + " FROM notes WHERE " + strings.Join(b.where, " AND ") + " ORDER BY id DESC"
}

// noteRow holds the nullable columns of a notes row while scanning.
type noteRow struct {
	note                           models.Note
	typ                            string
	text, mediaRef, caption, group sql.NullString
}

func (r *noteRow) dest() []any {
	return []any{&r.note.ID, &r.note.UserName, &r.note.Keyword, &r.typ, &r.text, &r.mediaRef, &r.caption, &r.group}
}

func (r *noteRow) build(created time.Time) (*models.Note, error) {
	t, err := models.ParseNoteType(r.typ)
	if err != nil {
		return nil, err
	}
	n := r.note
	n.Type = t
	n.Text = r.text.String
	n.MediaRef = r.mediaRef.String
	n.Caption = r.caption.String
	n.Group = r.group.String
	n.CreatedAt = created
	return &n, nil
}
