package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/media"
	"github.com/dmitrijs2005/notevault/internal/metrics"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
)

// NoteService is the keyword-indexed note store. Keywords are unique per
// user ignoring case; deleting a note also removes its media, best-effort.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       media.Repository
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, mr media.Repository, log logging.Logger, met *metrics.Metrics) *NoteService {
	return &NoteService{db: db, repomanager: m, media: mr, log: log, metrics: met}
}

// NormalizeKeyword trims and lowercases a keyword.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// ValidateKeyword checks a normalized keyword: it must be a single word of
// at most common.MaxNameLength characters.
func ValidateKeyword(keyword string) error {
	if keyword == "" {
		return common.ErrorEmptyKeyword
	}
	if utf8.RuneCountInString(keyword) > common.MaxNameLength {
		return fmt.Errorf("%w: keyword longer than %d characters", common.ErrorInvalidInput, common.MaxNameLength)
	}
	if strings.IndexFunc(keyword, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: keyword must be one word", common.ErrorInvalidInput)
	}
	return nil
}

// NormalizeGroup trims a group name and rejects the reserved filter values.
func NormalizeGroup(group string) (string, error) {
	group = strings.TrimSpace(group)
	if group == common.AllGroups || group == common.Ungrouped {
		return "", fmt.Errorf("%w: group name %q is reserved", common.ErrorInvalidInput, group)
	}
	return group, nil
}

// Add stores a note. The keyword is normalized first; uniqueness is left to
// the database so concurrent adds of the same keyword cannot both succeed.
func (s *NoteService) Add(ctx context.Context, n models.NewNote) (*models.Note, error) {
	n.Keyword = NormalizeKeyword(n.Keyword)
	if err := ValidateKeyword(n.Keyword); err != nil {
		return nil, err
	}

	if _, err := models.ParseNoteType(string(n.Type)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}
	if n.Type.HasMedia() && n.MediaRef == "" {
		return nil, fmt.Errorf("%w: %s note without media", common.ErrorInvalidInput, n.Type)
	}
	if !n.Type.HasMedia() {
		n.MediaRef = ""
	}

	group, err := NormalizeGroup(n.Group)
	if err != nil {
		return nil, err
	}
	n.Group = group

	note, err := s.repomanager.Notes(s.db).Create(ctx, &n)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorDuplicateKeyword
		}
		return nil, fmt.Errorf("error creating note: %w", err)
	}
	return note, nil
}

// GetByKeyword returns the user's note for keyword or common.ErrorNotFound.
func (s *NoteService) GetByKeyword(ctx context.Context, userName, keyword string) (*models.Note, error) {
	keyword = NormalizeKeyword(keyword)
	if keyword == "" {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Notes(s.db).GetByKeyword(ctx, userName, keyword)
}

// DeleteByKeyword removes one note and reports whether it existed.
func (s *NoteService) DeleteByKeyword(ctx context.Context, userName, keyword string) (bool, error) {
	note, err := s.GetByKeyword(ctx, userName, keyword)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}

	s.removeMedia(ctx, note)

	ok, err := s.repomanager.Notes(s.db).DeleteByID(ctx, userName, note.ID)
	if err != nil {
		return false, fmt.Errorf("error deleting note: %w", err)
	}
	return ok, nil
}

// DeleteGroup removes every note whose group is exactly group and returns how
// many were deleted.
func (s *NoteService) DeleteGroup(ctx context.Context, userName, group string) (int, error) {
	group, err := NormalizeGroup(group)
	if err != nil {
		return 0, err
	}
	if group == "" {
		return 0, fmt.Errorf("%w: empty group name", common.ErrorInvalidInput)
	}

	notes, err := s.repomanager.Notes(s.db).List(ctx, userName, group)
	if err != nil {
		return 0, fmt.Errorf("error listing group: %w", err)
	}

	count, err := s.deleteNotes(ctx, userName, notes)
	if err != nil {
		return 0, fmt.Errorf("error deleting group: %w", err)
	}
	return count, nil
}

// ClearAll removes all of the user's notes and returns the count.
func (s *NoteService) ClearAll(ctx context.Context, userName string) (int, error) {
	notes, err := s.repomanager.Notes(s.db).List(ctx, userName, common.AllGroups)
	if err != nil {
		return 0, fmt.Errorf("error listing notes: %w", err)
	}

	count, err := s.deleteNotes(ctx, userName, notes)
	if err != nil {
		return 0, fmt.Errorf("error deleting notes: %w", err)
	}
	return count, nil
}

// List returns the user's notes newest first, filtered by group.
func (s *NoteService) List(ctx context.Context, userName, group string) ([]*models.Note, error) {
	return s.repomanager.Notes(s.db).List(ctx, userName, strings.TrimSpace(group))
}

// Search returns notes whose text, caption or keyword contains query,
// ignoring case, newest first. An empty query matches every note.
func (s *NoteService) Search(ctx context.Context, userName, query, group string) ([]*models.Note, error) {
	return s.repomanager.Notes(s.db).Search(ctx, userName, strings.TrimSpace(query), strings.TrimSpace(group))
}

// Groups returns the distinct group names in use, sorted.
func (s *NoteService) Groups(ctx context.Context, userName string) ([]string, error) {
	groups, err := s.repomanager.Notes(s.db).Groups(ctx, userName)
	if err != nil {
		return nil, err
	}
	slices.Sort(groups)
	return groups, nil
}

// deleteNotes removes the media of notes and then exactly those records.
// Notes created after the caller listed them are left alone.
func (s *NoteService) deleteNotes(ctx context.Context, userName string, notes []*models.Note) (int, error) {
	ids := make([]int64, 0, len(notes))
	for _, n := range notes {
		s.removeMedia(ctx, n)
		ids = append(ids, n.ID)
	}

	count, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		return s.repomanager.Notes(tx).DeleteByIDs(ctx, userName, ids)
	})
	return int(count), err
}

func (s *NoteService) removeMedia(ctx context.Context, n *models.Note) {
	if n.MediaRef == "" {
		return
	}
	if _, err := s.media.Remove(ctx, n.MediaRef); err != nil {
		s.metrics.MediaRemovalFailed()
		s.log.Warn(ctx, "media removal failed", "user", n.UserName, "keyword", n.Keyword, "ref", n.MediaRef, "err", err)
	}
}
