package models

import (
	"fmt"
	"time"
)

// NoteType is the closed set of content kinds a note can hold.
type NoteType string

const (
	NoteTypeText      NoteType = "text"
	NoteTypePhoto     NoteType = "photo"
	NoteTypeVideo     NoteType = "video"
	NoteTypeVideoNote NoteType = "video_note"
	NoteTypeDocument  NoteType = "document"
	NoteTypeVoice     NoteType = "voice"
)

// ParseNoteType converts a stored or user-supplied value into a NoteType.
func ParseNoteType(s string) (NoteType, error) {
	switch t := NoteType(s); t {
	case NoteTypeText, NoteTypePhoto, NoteTypeVideo, NoteTypeVideoNote, NoteTypeDocument, NoteTypeVoice:
		return t, nil
	default:
		return "", fmt.Errorf("unknown note type %q", s)
	}
}

// HasMedia reports whether notes of this type carry binary content.
func (t NoteType) HasMedia() bool {
	return t != NoteTypeText
}

func (t NoteType) String() string { return string(t) }

// Note is a single keyword-addressed vault record.
//
// Empty Text, Caption, MediaRef and Group mean "absent"; they are stored as NULL.
type Note struct {
	ID        int64
	UserName  string
	Keyword   string
	Type      NoteType
	Text      string
	MediaRef  string
	Caption   string
	Group     string
	CreatedAt time.Time
}

// NewNote carries the fields needed to insert a note.
type NewNote struct {
	UserName string
	Keyword  string
	Type     NoteType
	Text     string
	MediaRef string
	Caption  string
	Group    string
}
