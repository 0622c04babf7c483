package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
)

// SessionService maps external ids to logged-in users. The last login for an
// external id wins; many ids may point at one user.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager) *SessionService {
	return &SessionService{db: db, repomanager: m}
}

func (s *SessionService) Set(ctx context.Context, externalID int64, userName string) error {
	return s.repomanager.Sessions(s.db).Upsert(ctx, externalID, userName)
}

// Clear logs the external id out. Clearing an absent session succeeds.
func (s *SessionService) Clear(ctx context.Context, externalID int64) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, externalID)
}

// Get returns the username bound to externalID or common.ErrorNotFound.
func (s *SessionService) Get(ctx context.Context, externalID int64) (string, error) {
	sess, err := s.repomanager.Sessions(s.db).Get(ctx, externalID)
	if err != nil {
		return "", err
	}
	return sess.UserName, nil
}
