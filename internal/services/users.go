package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the credential store: it registers users and verifies
// passwords against bcrypt hashes.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cost        int

	// dummyHash is compared against when the user does not exist, so that
	// unknown names cost the same as wrong passwords.
	dummyHash []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("notevault"), bcryptCost)
	return &UserService{db: db, repomanager: m, cost: bcryptCost, dummyHash: dummy}
}

// NormalizeUserName trims surrounding whitespace. Case is preserved; lookups
// ignore it.
func NormalizeUserName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateCredentials checks the length limits applied at registration.
func ValidateCredentials(userName, password string) error {
	n := utf8.RuneCountInString(userName)
	if n == 0 || n > common.MaxNameLength {
		return fmt.Errorf("%w: username must be 1-%d characters", common.ErrorInvalidInput, common.MaxNameLength)
	}
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidInput, common.MinPasswordLength)
	}
	return nil
}

// Register creates a user. A taken name, in any letter case, fails with
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, userName, password string) (string, error) {
	userName = NormalizeUserName(userName)
	if err := ValidateCredentials(userName, password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", common.ErrorInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", err
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}
	return userName, nil
}

// Verify checks a password and returns the canonical username. Unknown users
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Verify(ctx context.Context, userName, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByName(ctx, NormalizeUserName(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}
	return user.UserName, nil
}

// Delete removes the credential record.
func (s *UserService) Delete(ctx context.Context, userName string) error {
	return s.repomanager.Users(s.db).Delete(ctx, userName)
}
