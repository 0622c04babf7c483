package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/config"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/media"
	"github.com/dmitrijs2005/notevault/internal/metrics"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// newMediaID is a seam for deterministic media ids in tests.
var newMediaID = func() string { return uuid.NewString() }

// mediaObjectID returns a fresh object id for one note, keeping the
// extension of hint when it looks like one. Stored content is never shared
// between notes, even when the same file is sent twice.
func mediaObjectID(hint string) string {
	id := newMediaID()
	ext := strings.ToLower(path.Ext(hint))
	if len(ext) < 2 || len(ext) > 10 {
		return id
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return id
		}
	}
	return id + ext
}

// NoteDraft is the content collected for a new note. Content is required for
// media types and is persisted before the note record is written. ContentID
// is a hint only: its extension is kept, the stored object gets a new id.
type NoteDraft struct {
	Keyword   string
	Type      models.NoteType
	Text      string
	Caption   string
	Group     string
	Content   io.Reader
	ContentID string
}

// KeywordGroup lists the keywords of one group, sorted.
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// KeywordIndex is every keyword of a user, grouped.
type KeywordIndex struct {
	Groups    []KeywordGroup
	Ungrouped []string
	Total     int
}

// SearchResult holds at most MaxSearchResults notes; Total is the number of
// matches before truncation. Exact is set when the query named a keyword.
type SearchResult struct {
	Notes []*models.Note
	Total int
	Exact bool
}

// VaultService implements the use cases, each keyed by the caller's
// external id. Everything except Register and Login requires a session.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *UserService
	sessions    *SessionService
	notes       *NoteService
	media       media.Repository
	log         logging.Logger
	metrics     *metrics.Metrics

	maxSearchResults int
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, mr media.Repository,
	log logging.Logger, met *metrics.Metrics, cfg *config.Config) *VaultService {

	maxResults := cfg.MaxSearchResults
	if maxResults <= 0 {
		maxResults = common.MaxSearchResults
	}

	return &VaultService{
		db:               db,
		repomanager:      m,
		users:            NewUserService(db, m, cfg.BcryptCost),
		sessions:         NewSessionService(db, m),
		notes:            NewNoteService(db, m, mr, log, met),
		media:            mr,
		log:              log,
		metrics:          met,
		maxSearchResults: maxResults,
	}
}

func (s *VaultService) observe(op string, start time.Time, err error) {
	s.metrics.Observe(op, start, err)
}

// Register creates the account and logs externalID into it.
func (s *VaultService) Register(ctx context.Context, externalID int64, userName, password string) (name string, err error) {
	defer func(start time.Time) { s.observe("register", start, err) }(time.Now())

	name, err = s.users.Register(ctx, userName, password)
	if err != nil {
		return "", err
	}
	if err = s.sessions.Set(ctx, externalID, name); err != nil {
		return "", fmt.Errorf("error setting session: %w", err)
	}
	s.log.Info(ctx, "user registered", "user", name)
	return name, nil
}

// Login verifies the credentials and binds externalID to the user, replacing
// any earlier binding.
func (s *VaultService) Login(ctx context.Context, externalID int64, userName, password string) (name string, err error) {
	defer func(start time.Time) { s.observe("login", start, err) }(time.Now())

	name, err = s.users.Verify(ctx, userName, password)
	if err != nil {
		return "", err
	}
	if err = s.sessions.Set(ctx, externalID, name); err != nil {
		return "", fmt.Errorf("error setting session: %w", err)
	}
	return name, nil
}

func (s *VaultService) Logout(ctx context.Context, externalID int64) (err error) {
	defer func(start time.Time) { s.observe("logout", start, err) }(time.Now())

	if _, err = s.CurrentUser(ctx, externalID); err != nil {
		return err
	}
	return s.sessions.Clear(ctx, externalID)
}

// CurrentUser returns the user bound to externalID or
// common.ErrorUnauthenticated.
func (s *VaultService) CurrentUser(ctx context.Context, externalID int64) (string, error) {
	name, err := s.sessions.Get(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthenticated
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return name, nil
}

// AddNote persists media content first and then the note. If the insert
// fails the stored media is removed again, best-effort.
func (s *VaultService) AddNote(ctx context.Context, externalID int64, d NoteDraft) (note *models.Note, err error) {
	defer func(start time.Time) { s.observe("add_note", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err = ValidateKeyword(NormalizeKeyword(d.Keyword)); err != nil {
		return nil, err
	}
	if _, err = models.ParseNoteType(string(d.Type)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}

	var ref string
	if d.Type.HasMedia() {
		if d.Content == nil {
			return nil, fmt.Errorf("%w: %s note without content", common.ErrorInvalidInput, d.Type)
		}
		ref, err = s.media.Store(ctx, d.Content, mediaObjectID(d.ContentID))
		if err != nil {
			if !errors.Is(err, common.ErrorMediaTransfer) {
				err = fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
			}
			return nil, err
		}
	}

	note, err = s.notes.Add(ctx, models.NewNote{
		UserName: user,
		Keyword:  d.Keyword,
		Type:     d.Type,
		Text:     d.Text,
		MediaRef: ref,
		Caption:  d.Caption,
		Group:    d.Group,
	})
	if err != nil {
		if ref != "" {
			if _, rmErr := s.media.Remove(ctx, ref); rmErr != nil {
				s.metrics.MediaRemovalFailed()
				s.log.Warn(ctx, "orphaned media not removed", "user", user, "ref", ref, "err", rmErr)
			}
		}
		return nil, err
	}
	return note, nil
}

func (s *VaultService) GetNote(ctx context.Context, externalID int64, keyword string) (note *models.Note, err error) {
	defer func(start time.Time) { s.observe("get_note", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.notes.GetByKeyword(ctx, user, keyword)
}

// DeleteNote reports false when no note had that keyword.
func (s *VaultService) DeleteNote(ctx context.Context, externalID int64, keyword string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("delete_note", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return false, err
	}
	return s.notes.DeleteByKeyword(ctx, user, keyword)
}

func (s *VaultService) DeleteGroup(ctx context.Context, externalID int64, group string) (n int, err error) {
	defer func(start time.Time) { s.observe("delete_group", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return 0, err
	}
	return s.notes.DeleteGroup(ctx, user, group)
}

func (s *VaultService) ClearAll(ctx context.Context, externalID int64) (n int, err error) {
	defer func(start time.Time) { s.observe("clear_all", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return 0, err
	}
	return s.notes.ClearAll(ctx, user)
}

// DeleteAccount removes the user's notes, then its sessions and the user.
// confirmation must equal the username, ignoring case.
//
// Notes go first and outside the transaction: a failure after that point can
// leave an empty account, never a session pointing at a deleted user.
func (s *VaultService) DeleteAccount(ctx context.Context, externalID int64, confirmation string) (err error) {
	defer func(start time.Time) { s.observe("delete_account", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(confirmation), user) {
		return common.ErrorConfirmationMismatch
	}

	if _, err = s.notes.ClearAll(ctx, user); err != nil {
		return err
	}

	// Sessions go before the user; the schema would cascade them otherwise
	// and the count would be lost.
	sessions, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		n, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user)
		if err != nil {
			return 0, fmt.Errorf("error deleting sessions: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, user); err != nil {
			return 0, fmt.Errorf("error deleting user: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "account deleted", "user", user, "sessions", sessions)
	return nil
}

// ListKeywords returns every keyword grouped by group name. Groups and the
// keywords inside them are sorted.
func (s *VaultService) ListKeywords(ctx context.Context, externalID int64) (idx *KeywordIndex, err error) {
	defer func(start time.Time) { s.observe("list_keywords", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.List(ctx, user, common.AllGroups)
	if err != nil {
		return nil, err
	}

	byGroup := map[string][]string{}
	idx = &KeywordIndex{Total: len(notes)}
	for _, n := range notes {
		if n.Group == "" {
			idx.Ungrouped = append(idx.Ungrouped, n.Keyword)
			continue
		}
		byGroup[n.Group] = append(byGroup[n.Group], n.Keyword)
	}

	for name, kws := range byGroup {
		slices.Sort(kws)
		idx.Groups = append(idx.Groups, KeywordGroup{Name: name, Keywords: kws})
	}
	slices.SortFunc(idx.Groups, func(a, b KeywordGroup) int { return strings.Compare(a.Name, b.Name) })
	slices.Sort(idx.Ungrouped)

	return idx, nil
}

// ListNotes returns notes newest first. group may be common.AllGroups or
// common.Ungrouped.
func (s *VaultService) ListNotes(ctx context.Context, externalID int64, group string) (notes []*models.Note, err error) {
	defer func(start time.Time) { s.observe("list_notes", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.notes.List(ctx, user, group)
}

func (s *VaultService) Groups(ctx context.Context, externalID int64) (groups []string, err error) {
	defer func(start time.Time) { s.observe("groups", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.notes.Groups(ctx, user)
}

// Search first tries query as a keyword; an exact hit is returned alone and
// the group filter is not applied. Otherwise it runs a substring search.
func (s *VaultService) Search(ctx context.Context, externalID int64, query, group string) (res *SearchResult, err error) {
	defer func(start time.Time) { s.observe("search", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if NormalizeKeyword(query) != "" {
		note, err := s.notes.GetByKeyword(ctx, user, query)
		switch {
		case err == nil:
			return &SearchResult{Notes: []*models.Note{note}, Total: 1, Exact: true}, nil
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}

	notes, err := s.notes.Search(ctx, user, query, group)
	if err != nil {
		return nil, err
	}
	res = &SearchResult{Notes: notes, Total: len(notes)}
	if len(res.Notes) > s.maxSearchResults {
		res.Notes = res.Notes[:s.maxSearchResults]
	}
	return res, nil
}

// OpenMedia streams the content of one of the caller's notes. Missing content
// yields common.ErrorNotFound.
func (s *VaultService) OpenMedia(ctx context.Context, externalID int64, note *models.Note) (rc io.ReadCloser, err error) {
	defer func(start time.Time) { s.observe("open_media", start, err) }(time.Now())

	user, err := s.CurrentUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(note.UserName, user) {
		return nil, common.ErrorUnauthorized
	}
	if note.MediaRef == "" {
		return nil, common.ErrorNotFound
	}
	return s.media.Open(ctx, note.MediaRef)
}
