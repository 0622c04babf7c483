// Package users persists credential records. Usernames are unique
// case-insensitively in every dialect.
package users

import (
	"context"

	"github.com/dmitrijs2005/notevault/internal/models"
)

type Repository interface {
	// Create inserts a user; a case-insensitive name clash yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	// GetByName looks a user up case-insensitively; common.ErrorNotFound if absent.
	GetByName(ctx context.Context, userName string) (*models.User, error)
	// Delete removes a user; common.ErrorNotFound if absent.
	Delete(ctx context.Context, userName string) error
}
