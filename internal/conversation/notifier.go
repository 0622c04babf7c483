package conversation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/dmitrijs2005/notevault/internal/services"
)

// MediaMissing marks a note whose content could not be delivered.
const MediaMissing = "[media missing]"

// Notifier sends notes and plain messages back to an identity. SendNote
// renders by note type: a plain message for text, an attachment with caption
// otherwise.
type Notifier interface {
	SendNote(ctx context.Context, externalID int64, note *models.Note) error
	SendText(ctx context.Context, externalID int64, text string) error
}

// Attachment is media content sent with a message. Open is called once, when
// the note is persisted.
type Attachment struct {
	Type    models.NoteType
	ID      string
	Caption string
	Open    func() (io.ReadCloser, error)
}

// KeywordLine is the header every rendered note starts with.
func KeywordLine(n *models.Note) string {
	return "Keyword: " + n.Keyword
}

// TextBody is the rendering of a text note.
func TextBody(n *models.Note) string {
	text := n.Text
	if text == "" {
		text = "[empty text note]"
	}
	return KeywordLine(n) + "\n" + text
}

// FullCaption is the caption sent with an attachment: the group tag, the
// keyword line and the stored caption.
func FullCaption(n *models.Note) string {
	var b strings.Builder
	if n.Group != "" {
		fmt.Fprintf(&b, "[%s] ", n.Group)
	}
	b.WriteString(KeywordLine(n))
	if n.Caption != "" {
		b.WriteString("\n")
		b.WriteString(n.Caption)
	}
	return b.String()
}

// MissingMediaText replaces an attachment that is no longer stored.
func MissingMediaText(n *models.Note) string {
	return n.Keyword + " " + MediaMissing
}

// FormatKeywordIndex renders the keyword listing, ungrouped keywords last.
func FormatKeywordIndex(idx *services.KeywordIndex) string {
	if idx == nil || idx.Total == 0 {
		return "You have no notes yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your keywords (%d total):\n", idx.Total)
	for _, g := range idx.Groups {
		writeKeywordGroup(&b, g.Name, g.Keywords)
	}
	if len(idx.Ungrouped) > 0 {
		writeKeywordGroup(&b, OptionNoGroup, idx.Ungrouped)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeKeywordGroup(b *strings.Builder, name string, keywords []string) {
	fmt.Fprintf(b, "\n%s:\n", name)
	for _, kw := range keywords {
		fmt.Fprintf(b, "  - %s\n", kw)
	}
}
