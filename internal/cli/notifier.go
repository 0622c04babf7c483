package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/conversation"
	"github.com/dmitrijs2005/notevault/internal/filex"
	"github.com/dmitrijs2005/notevault/internal/models"
)

// mediaOpener is the part of the vault the notifier needs to fetch content.
type mediaOpener interface {
	OpenMedia(ctx context.Context, externalID int64, note *models.Note) (io.ReadCloser, error)
}

// TerminalNotifier prints notes to w. Attachments are copied into exportDir
// and announced with their path and caption.
type TerminalNotifier struct {
	mu        sync.Mutex
	w         io.Writer
	media     mediaOpener
	exportDir string
	styles    styles
}

func NewTerminalNotifier(w io.Writer, m mediaOpener, exportDir string) *TerminalNotifier {
	return &TerminalNotifier{w: w, media: m, exportDir: exportDir, styles: newStyles(w)}
}

func (n *TerminalNotifier) println(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintln(n.w, text)
	return err
}

func (n *TerminalNotifier) SendText(_ context.Context, _ int64, text string) error {
	return n.println(text)
}

func (n *TerminalNotifier) SendNote(ctx context.Context, externalID int64, note *models.Note) error {
	switch note.Type {
	case models.NoteTypeText:
		return n.println(n.styles.keyword.Render(conversation.TextBody(note)))

	case models.NoteTypePhoto, models.NoteTypeVideo, models.NoteTypeVideoNote,
		models.NoteTypeDocument, models.NoteTypeVoice:
		path, err := n.export(ctx, externalID, note)
		if errors.Is(err, common.ErrorNotFound) {
			return n.println(n.styles.warn.Render(conversation.MissingMediaText(note)))
		}
		if err != nil {
			return err
		}
		tag := n.styles.tag.Render("[" + note.Type.String() + "]")
		return n.println(fmt.Sprintf("%s %s\n%s", tag, path, conversation.FullCaption(note)))

	default:
		return fmt.Errorf("unsupported note type %q", note.Type)
	}
}

// export copies the note's content to exportDir/<keyword><ext>.
func (n *TerminalNotifier) export(ctx context.Context, externalID int64, note *models.Note) (string, error) {
	rc, err := n.media.OpenMedia(ctx, externalID, note)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dir, err := filex.EnsureDir(n.exportDir)
	if err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := note.Keyword
	if !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		name = fmt.Sprintf("note-%d", note.ID)
	}
	path := filepath.Join(dir, name+filepath.Ext(note.MediaRef))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("export %s: %w", note.Keyword, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
