package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpener map[string]string

func (f fakeOpener) OpenMedia(_ context.Context, _ int64, note *models.Note) (io.ReadCloser, error) {
	data, ok := f[note.MediaRef]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func TestTerminalNotifier_Text(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminalNotifier(&out, fakeOpener{}, t.TempDir())

	require.NoError(t, n.SendNote(context.Background(), 1, &models.Note{Keyword: "pin", Type: models.NoteTypeText, Text: "1234"}))
	require.NoError(t, n.SendNote(context.Background(), 1, &models.Note{Keyword: "blank", Type: models.NoteTypeText}))
	require.NoError(t, n.SendText(context.Background(), 1, "plain"))

	got := out.String()
	assert.Contains(t, got, "Keyword: pin")
	assert.Contains(t, got, "1234")
	assert.Contains(t, got, "[empty text note]")
	assert.Contains(t, got, "plain\n")
}

func TestTerminalNotifier_MediaIsExported(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	var out bytes.Buffer
	n := NewTerminalNotifier(&out, fakeOpener{"abc.jpg": "jpeg", "def.ogg": "ogg"}, dir)

	note := &models.Note{ID: 3, Keyword: "cat", Type: models.NoteTypePhoto, MediaRef: "abc.jpg", Caption: "my cat", Group: "pets"}
	require.NoError(t, n.SendNote(context.Background(), 1, note))

	data, err := os.ReadFile(filepath.Join(dir, "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Contains(t, out.String(), "[photo] "+filepath.Join(dir, "cat.jpg"))
	assert.Contains(t, out.String(), "[pets] Keyword: cat\nmy cat")

	odd := &models.Note{ID: 4, Keyword: "..", Type: models.NoteTypeVoice, MediaRef: "def.ogg"}
	require.NoError(t, n.SendNote(context.Background(), 1, odd))
	_, err = os.Stat(filepath.Join(dir, "note-4.ogg"))
	require.NoError(t, err)
}

func TestTerminalNotifier_MissingMedia(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminalNotifier(&out, fakeOpener{}, t.TempDir())

	note := &models.Note{Keyword: "lost", Type: models.NoteTypeDocument, MediaRef: "gone.pdf"}
	require.NoError(t, n.SendNote(context.Background(), 1, note))
	assert.Contains(t, out.String(), "lost [media missing]")
}

func TestTerminalNotifier_UnknownType(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminalNotifier(&out, fakeOpener{}, t.TempDir())
	require.Error(t, n.SendNote(context.Background(), 1, &models.Note{Keyword: "x", Type: "sticker"}))
}
