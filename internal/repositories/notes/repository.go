// Package notes persists keyword-addressed vault notes. Keywords are expected
// to be normalized (trimmed, lowercased) by the caller; lookups still compare
// lower(keyword) so rows written by older clients keep matching.
//
// Group filters follow common.IsAllGroups / common.Ungrouped: "" or
// common.AllGroups disables filtering, common.Ungrouped selects rows with no
// group and any other value is an exact match.
package notes

import (
	"context"

	"github.com/dmitrijs2005/notevault/internal/models"
)

type Repository interface {
	// Create inserts a note and fails with common.ErrorAlreadyExists when the
	// (username, keyword) pair is taken.
	Create(ctx context.Context, note *models.NewNote) (*models.Note, error)
	GetByKeyword(ctx context.Context, userName, keyword string) (*models.Note, error)
	DeleteByID(ctx context.Context, userName string, id int64) (bool, error)
	// List returns notes newest first.
	List(ctx context.Context, userName, group string) ([]*models.Note, error)
	// Search matches query as a literal, case-insensitive substring of text,
	// caption or keyword. Results are newest first.
	Search(ctx context.Context, userName, query, group string) ([]*models.Note, error)
	// DeleteByIDs removes the user's notes with the given ids and returns how
	// many rows went away. Ids of other users are ignored.
	DeleteByIDs(ctx context.Context, userName string, ids []int64) (int64, error)
	Groups(ctx context.Context, userName string) ([]string, error)
}
