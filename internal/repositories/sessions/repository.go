// Package sessions stores the mapping from a chat transport identity
// (external id) to the logged-in username.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/notevault/internal/models"
)

type Repository interface {
	// Upsert binds externalID to userName, replacing any previous binding.
	Upsert(ctx context.Context, externalID int64, userName string) error
	Get(ctx context.Context, externalID int64) (*models.Session, error)
	// Delete removes the binding; a missing row is not an error.
	Delete(ctx context.Context, externalID int64) error
	DeleteByUser(ctx context.Context, userName string) (int64, error)
}
