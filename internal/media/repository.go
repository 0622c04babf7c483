// Package media stores the binary content attached to notes. Notes keep only
// the opaque reference returned by Store.
package media

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository persists note attachments.
//
// Store is idempotent per suggestedID: storing twice under the same id
// overwrites and returns the same reference. Remove on an absent reference
// succeeds and reports false.
type Repository interface {
	Store(ctx context.Context, content io.Reader, suggestedID string) (string, error)
	Remove(ctx context.Context, ref string) (bool, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// newID is a seam for deterministic ids in tests.
var newID = func() string { return uuid.NewString() }

func objectID(suggestedID string) string {
	if suggestedID == "" {
		return newID()
	}
	return suggestedID
}
