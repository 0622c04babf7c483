package conversation

import "github.com/dmitrijs2005/notevault/internal/models"

// State is where an identity is in a dialog. Pending input (a note draft, a
// chosen group) lives inside the state value and is gone once the machine
// returns Idle.
type State interface {
	isState()
}

// Draft is a note being collected by the add-note dialog.
type Draft struct {
	Type       models.NoteType
	Text       string
	Caption    string
	Attachment *Attachment
	Group      string
}

// Idle waits for a command or a keyword to look up.
type Idle struct{}

// AwaitingUsername expects the username of a login, or of a new account when
// Register is set.
type AwaitingUsername struct {
	Register bool
}

type AwaitingPassword struct {
	Register bool
	UserName string
}

// AwaitingContent expects the body of a new note: text or an attachment.
type AwaitingContent struct{}

// AwaitingGroupChoice expects one of Groups, the "no group" option or the
// "new group" option.
type AwaitingGroupChoice struct {
	Draft  Draft
	Groups []string
}

// AwaitingGroupName expects a typed name for a new group.
type AwaitingGroupName struct {
	Draft Draft
}

type AwaitingKeyword struct {
	Draft Draft
}

// AwaitingSearchScope expects the group to search in. Any typed name is
// accepted besides the offered options.
type AwaitingSearchScope struct {
	Groups []string
}

type AwaitingSearchQuery struct {
	Group string
}

// AwaitingDeliveryScope expects the group whose notes are sent in bulk.
type AwaitingDeliveryScope struct {
	Groups []string
}

type AwaitingDeleteKeyword struct{}

// AwaitingGroupDeletion expects a group from Groups while Group is empty and
// a yes/no confirmation once it is set.
type AwaitingGroupDeletion struct {
	Groups []string
	Group  string
}

type AwaitingClearConfirm struct{}

// AwaitingAccountConfirm expects the username to be retyped.
type AwaitingAccountConfirm struct {
	UserName string
}

func (Idle) isState()                   {}
func (AwaitingUsername) isState()       {}
func (AwaitingPassword) isState()       {}
func (AwaitingContent) isState()        {}
func (AwaitingGroupChoice) isState()    {}
func (AwaitingGroupName) isState()      {}
func (AwaitingKeyword) isState()        {}
func (AwaitingSearchScope) isState()    {}
func (AwaitingSearchQuery) isState()    {}
func (AwaitingDeliveryScope) isState()  {}
func (AwaitingDeleteKeyword) isState()  {}
func (AwaitingGroupDeletion) isState()  {}
func (AwaitingClearConfirm) isState()   {}
func (AwaitingAccountConfirm) isState() {}
