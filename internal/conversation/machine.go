package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/dmitrijs2005/notevault/internal/services"
)

// Commands understood in any state. A command abandons the dialog in
// progress.
const (
	CmdStart         = "/start"
	CmdHelp          = "/help"
	CmdCancel        = "/cancel"
	CmdRegister      = "/register"
	CmdLogin         = "/login"
	CmdLogout        = "/logout"
	CmdAdd           = "/add"
	CmdList          = "/list"
	CmdGetAll        = "/getall"
	CmdSearch        = "/search"
	CmdDelete        = "/delete"
	CmdDeleteGroup   = "/delgroup"
	CmdClear         = "/clear"
	CmdDeleteAccount = "/deleteaccount"
)

// Choice labels offered as reply options.
const (
	OptionAllGroups = "All groups"
	OptionNoGroup   = "Without group"
	OptionNewGroup  = "Type new group"
	OptionYes       = "yes"
	OptionNo        = "no"
)

var (
	authMenu = []string{CmdRegister, CmdLogin}
	mainMenu = []string{CmdAdd, CmdList, CmdGetAll, CmdSearch, CmdDelete, CmdDeleteGroup, CmdClear, CmdLogout, CmdDeleteAccount}
)

// Vault is the set of use cases the dialog drives.
type Vault interface {
	Register(ctx context.Context, externalID int64, userName, password string) (string, error)
	Login(ctx context.Context, externalID int64, userName, password string) (string, error)
	Logout(ctx context.Context, externalID int64) error
	CurrentUser(ctx context.Context, externalID int64) (string, error)
	AddNote(ctx context.Context, externalID int64, d services.NoteDraft) (*models.Note, error)
	GetNote(ctx context.Context, externalID int64, keyword string) (*models.Note, error)
	DeleteNote(ctx context.Context, externalID int64, keyword string) (bool, error)
	DeleteGroup(ctx context.Context, externalID int64, group string) (int, error)
	ClearAll(ctx context.Context, externalID int64) (int, error)
	DeleteAccount(ctx context.Context, externalID int64, confirmation string) error
	ListKeywords(ctx context.Context, externalID int64) (*services.KeywordIndex, error)
	ListNotes(ctx context.Context, externalID int64, group string) ([]*models.Note, error)
	Groups(ctx context.Context, externalID int64) ([]string, error)
	Search(ctx context.Context, externalID int64, query, group string) (*services.SearchResult, error)
}

// Input is one message from an identity.
type Input struct {
	ExternalID int64
	Text       string
	Attachment *Attachment
}

// Reply is a message for the identity. Options, when present, are the
// answers the transport should offer.
type Reply struct {
	Text    string
	Options []string
}

// Machine is the dialog transition function. It holds no per-identity data
// and is safe for concurrent use.
type Machine struct {
	vault     Vault
	notifier  Notifier
	log       logging.Logger
	batchSize int
}

func NewMachine(v Vault, n Notifier, log logging.Logger, batchSize int) *Machine {
	if batchSize <= 0 {
		batchSize = common.BatchSize
	}
	return &Machine{vault: v, notifier: n, log: log, batchSize: batchSize}
}

func reply(text string, options ...string) []Reply {
	return []Reply{{Text: text, Options: options}}
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// Handle applies in to st. A nil st is treated as Idle.
func (m *Machine) Handle(ctx context.Context, st State, in Input) (State, []Reply) {
	if st == nil {
		st = Idle{}
	}
	ctx = logging.ContextWith(ctx, "external_id", in.ExternalID)

	if in.Attachment == nil && isCommand(in.Text) {
		cmd := strings.Fields(in.Text)[0]
		if cmd == CmdCancel {
			if _, idle := st.(Idle); idle {
				return Idle{}, reply("Nothing to cancel.")
			}
			return Idle{}, m.menu(ctx, in.ExternalID, "Cancelled.")
		}
		return m.command(ctx, in, strings.ToLower(cmd))
	}

	switch s := st.(type) {
	case Idle:
		return m.lookup(ctx, in)
	case AwaitingUsername:
		return m.username(s, in)
	case AwaitingPassword:
		return m.password(ctx, s, in)
	case AwaitingContent:
		return m.content(ctx, in)
	case AwaitingGroupChoice:
		return m.groupChoice(s, in)
	case AwaitingGroupName:
		return m.groupName(s, in)
	case AwaitingKeyword:
		return m.keyword(ctx, s, in)
	case AwaitingSearchScope:
		return AwaitingSearchQuery{Group: scope(in.Text)},
			reply(fmt.Sprintf("Send a keyword to find your note in %s:", scopeName(scope(in.Text))))
	case AwaitingSearchQuery:
		return m.search(ctx, s, in)
	case AwaitingDeliveryScope:
		return m.deliverGroup(ctx, in, scope(in.Text))
	case AwaitingDeleteKeyword:
		return m.deleteNote(ctx, in)
	case AwaitingGroupDeletion:
		return m.groupDeletion(ctx, s, in)
	case AwaitingClearConfirm:
		return m.clear(ctx, in)
	case AwaitingAccountConfirm:
		return m.deleteAccount(ctx, s, in)
	default:
		m.log.Error(ctx, "unknown conversation state", "state", fmt.Sprintf("%T", st))
		return Idle{}, reply("Something went wrong. Please try again.")
	}
}

// menu greets the identity with the commands available to it.
func (m *Machine) menu(ctx context.Context, externalID int64, text string) []Reply {
	user, err := m.vault.CurrentUser(ctx, externalID)
	switch {
	case err == nil:
		if text == "" {
			text = "Logged in as " + user
		}
		return reply(text, mainMenu...)
	case errors.Is(err, common.ErrorUnauthenticated):
		if text == "" {
			text = "Welcome to notevault\nYour private vault with custom keywords!"
		}
		return reply(text, authMenu...)
	default:
		m.log.Error(ctx, "session lookup failed", "err", err)
		return reply("Something went wrong. Please try again.")
	}
}

// fail ends the dialog after a use case error.
func (m *Machine) fail(ctx context.Context, op string, err error) (State, []Reply) {
	if errors.Is(err, common.ErrorUnauthenticated) {
		return Idle{}, reply("Please log in first!", authMenu...)
	}
	m.log.Error(ctx, "operation failed", "op", op, "err", err)
	return Idle{}, reply("Something went wrong. Please try again.", mainMenu...)
}

func (m *Machine) command(ctx context.Context, in Input, cmd string) (State, []Reply) {
	switch cmd {
	case CmdStart, CmdHelp:
		return Idle{}, m.menu(ctx, in.ExternalID, "")
	case CmdRegister:
		return AwaitingUsername{Register: true}, reply("Send username:")
	case CmdLogin:
		return AwaitingUsername{}, reply("Send username:")
	}
	if !slices.Contains(mainMenu, cmd) {
		return Idle{}, append(reply("Unknown command: "+cmd), m.menu(ctx, in.ExternalID, "")...)
	}

	user, err := m.vault.CurrentUser(ctx, in.ExternalID)
	if err != nil {
		return m.fail(ctx, "current_user", err)
	}

	switch cmd {
	case CmdLogout:
		if err := m.vault.Logout(ctx, in.ExternalID); err != nil {
			return m.fail(ctx, "logout", err)
		}
		return Idle{}, reply("Logged out successfully.", authMenu...)

	case CmdAdd:
		return AwaitingContent{}, reply("Send your note (text or an attachment):")

	case CmdList:
		idx, err := m.vault.ListKeywords(ctx, in.ExternalID)
		if err != nil {
			return m.fail(ctx, "list_keywords", err)
		}
		return Idle{}, reply(FormatKeywordIndex(idx), mainMenu...)

	case CmdGetAll, CmdSearch:
		groups, err := m.vault.Groups(ctx, in.ExternalID)
		if err != nil {
			return m.fail(ctx, "groups", err)
		}
		options := append([]string{OptionAllGroups, OptionNoGroup}, groups...)
		if cmd == CmdGetAll {
			return AwaitingDeliveryScope{Groups: groups}, reply("Choose group to view:", options...)
		}
		return AwaitingSearchScope{Groups: groups}, reply("Search in which group? Pick one or type a name:", options...)

	case CmdDelete:
		return AwaitingDeleteKeyword{}, reply("Send the keyword of the note you want to delete:")

	case CmdDeleteGroup:
		groups, err := m.vault.Groups(ctx, in.ExternalID)
		if err != nil {
			return m.fail(ctx, "groups", err)
		}
		if len(groups) == 0 {
			return Idle{}, reply("You have no groups to delete.", mainMenu...)
		}
		return AwaitingGroupDeletion{Groups: groups},
			reply("Choose group to delete (all notes in it will be deleted):", groups...)

	case CmdClear:
		return AwaitingClearConfirm{}, reply("Delete ALL your notes?", OptionYes, OptionNo)

	case CmdDeleteAccount:
		return AwaitingAccountConfirm{UserName: user},
			reply(fmt.Sprintf("Type your username %s to confirm deletion:", user))
	}

	return Idle{}, m.menu(ctx, in.ExternalID, "")
}

// lookup treats idle text as a keyword.
func (m *Machine) lookup(ctx context.Context, in Input) (State, []Reply) {
	if in.Attachment != nil {
		return Idle{}, reply("Send " + CmdAdd + " first to save an attachment.")
	}
	keyword := services.NormalizeKeyword(in.Text)
	if keyword == "" {
		return Idle{}, m.menu(ctx, in.ExternalID, "")
	}

	note, err := m.vault.GetNote(ctx, in.ExternalID, keyword)
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return Idle{}, m.menu(ctx, in.ExternalID, "")
	case errors.Is(err, common.ErrorNotFound):
		return Idle{}, reply(fmt.Sprintf("No note found with keyword %s. Send %s for commands.", keyword, CmdHelp))
	case err != nil:
		return m.fail(ctx, "get_note", err)
	}

	m.send(ctx, in.ExternalID, note)
	return Idle{}, nil
}

func (m *Machine) username(s AwaitingUsername, in Input) (State, []Reply) {
	name := services.NormalizeUserName(in.Text)
	if s.Register {
		if n := utf8.RuneCountInString(name); n == 0 || n > common.MaxNameLength {
			return s, reply("Invalid username.")
		}
	}
	return AwaitingPassword{Register: s.Register, UserName: name}, reply("Send password:")
}

func (m *Machine) password(ctx context.Context, s AwaitingPassword, in Input) (State, []Reply) {
	if !s.Register {
		user, err := m.vault.Login(ctx, in.ExternalID, s.UserName, in.Text)
		if errors.Is(err, common.ErrorUnauthorized) {
			return Idle{}, reply("Wrong credentials.", authMenu...)
		}
		if err != nil {
			return m.fail(ctx, "login", err)
		}
		return Idle{}, reply("Logged in as "+user, mainMenu...)
	}

	if utf8.RuneCountInString(in.Text) < common.MinPasswordLength {
		return s, reply("Password too short.")
	}
	user, err := m.vault.Register(ctx, in.ExternalID, s.UserName, in.Text)
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		return Idle{}, reply("Username already taken.", authMenu...)
	case errors.Is(err, common.ErrorInvalidInput):
		return Idle{}, reply("Invalid username or password.", authMenu...)
	case err != nil:
		return m.fail(ctx, "register", err)
	}
	return Idle{}, reply(fmt.Sprintf("Account %s created!", user), mainMenu...)
}

func (m *Machine) content(ctx context.Context, in Input) (State, []Reply) {
	var d Draft
	if a := in.Attachment; a != nil {
		if _, err := models.ParseNoteType(string(a.Type)); err != nil || !a.Type.HasMedia() || a.Open == nil {
			return AwaitingContent{}, reply("Unsupported attachment. Send text or a photo, video, voice or document.")
		}
		d = Draft{Type: a.Type, Caption: a.Caption, Attachment: a}
	} else {
		if strings.TrimSpace(in.Text) == "" {
			return AwaitingContent{}, reply("Send some text or an attachment.")
		}
		d = Draft{Type: models.NoteTypeText, Text: in.Text}
	}

	groups, err := m.vault.Groups(ctx, in.ExternalID)
	if err != nil {
		return m.fail(ctx, "groups", err)
	}
	return AwaitingGroupChoice{Draft: d, Groups: groups}, groupPrompt(groups)
}

func groupPrompt(groups []string) []Reply {
	options := append(slices.Clone(groups), OptionNoGroup, OptionNewGroup)
	return reply("Choose group to save this note:", options...)
}

func (m *Machine) groupChoice(s AwaitingGroupChoice, in Input) (State, []Reply) {
	choice := strings.TrimSpace(in.Text)
	switch {
	case choice == OptionNewGroup:
		return AwaitingGroupName{Draft: s.Draft}, reply("Type the new group name:")
	case choice == OptionNoGroup:
		s.Draft.Group = ""
	case slices.Contains(s.Groups, choice):
		s.Draft.Group = choice
	default:
		return s, groupPrompt(s.Groups)
	}
	return AwaitingKeyword{Draft: s.Draft}, reply("Now send a keyword for this note:")
}

func (m *Machine) groupName(s AwaitingGroupName, in Input) (State, []Reply) {
	group, err := services.NormalizeGroup(in.Text)
	if err != nil {
		return s, reply("That group name is reserved. Type another one:")
	}
	if group == "" {
		return s, reply("Group name cannot be empty.")
	}
	s.Draft.Group = group
	return AwaitingKeyword{Draft: s.Draft}, reply("Now send a keyword for this note:")
}

func (m *Machine) keyword(ctx context.Context, s AwaitingKeyword, in Input) (State, []Reply) {
	keyword := services.NormalizeKeyword(in.Text)
	if err := services.ValidateKeyword(keyword); err != nil {
		return s, reply("Keyword must be one word, no spaces.")
	}

	d := services.NoteDraft{
		Keyword: keyword,
		Type:    s.Draft.Type,
		Text:    s.Draft.Text,
		Caption: s.Draft.Caption,
		Group:   s.Draft.Group,
	}
	if a := s.Draft.Attachment; a != nil {
		rc, err := a.Open()
		if err != nil {
			m.log.Error(ctx, "attachment open failed", "err", err)
			return Idle{}, reply("Failed to process content.", mainMenu...)
		}
		defer rc.Close()
		d.Content = rc
		d.ContentID = a.ID
	}

	_, err := m.vault.AddNote(ctx, in.ExternalID, d)
	switch {
	case errors.Is(err, common.ErrorDuplicateKeyword):
		return Idle{}, reply("This keyword is already used. Choose another.", mainMenu...)
	case errors.Is(err, common.ErrorMediaTransfer):
		m.log.Error(ctx, "media store failed", "err", err)
		return Idle{}, reply("Failed to process content.", mainMenu...)
	case err != nil:
		return m.fail(ctx, "add_note", err)
	}

	where := " (without group)"
	if d.Group != "" {
		where = " in group " + d.Group
	}
	return Idle{}, reply(fmt.Sprintf("Note saved with keyword %s%s!\n\nJust send %s anytime to view it.", keyword, where, keyword), mainMenu...)
}

// scope maps a scope answer to a group filter.
func scope(answer string) string {
	switch answer = strings.TrimSpace(answer); answer {
	case "", OptionAllGroups:
		return common.AllGroups
	case OptionNoGroup:
		return common.Ungrouped
	default:
		return answer
	}
}

func scopeName(group string) string {
	switch group {
	case common.AllGroups:
		return OptionAllGroups
	case common.Ungrouped:
		return OptionNoGroup
	default:
		return group
	}
}

func (m *Machine) search(ctx context.Context, s AwaitingSearchQuery, in Input) (State, []Reply) {
	query := strings.TrimSpace(in.Text)
	res, err := m.vault.Search(ctx, in.ExternalID, query, s.Group)
	if err != nil {
		return m.fail(ctx, "search", err)
	}

	if res.Exact {
		m.send(ctx, in.ExternalID, res.Notes[0])
		return Idle{}, reply(fmt.Sprintf("Found with keyword %s.", res.Notes[0].Keyword), mainMenu...)
	}
	if res.Total == 0 {
		return Idle{}, reply("No results found.", mainMenu...)
	}

	m.deliver(ctx, in.ExternalID, res.Notes)
	text := fmt.Sprintf("Found %d result(s).", res.Total)
	if res.Total > len(res.Notes) {
		text += fmt.Sprintf(" Showing the newest %d.", len(res.Notes))
	}
	return Idle{}, reply(text, mainMenu...)
}

func (m *Machine) deliverGroup(ctx context.Context, in Input, group string) (State, []Reply) {
	notes, err := m.vault.ListNotes(ctx, in.ExternalID, group)
	if err != nil {
		return m.fail(ctx, "list_notes", err)
	}
	if len(notes) == 0 {
		if group == common.AllGroups {
			return Idle{}, reply("You have no notes yet.", mainMenu...)
		}
		return Idle{}, reply(fmt.Sprintf("You have no notes in %s.", scopeName(group)), mainMenu...)
	}

	sent := m.deliver(ctx, in.ExternalID, notes)
	text := fmt.Sprintf("Sent %d note(s) from %s.", sent, scopeName(group))
	if sent < len(notes) {
		text += fmt.Sprintf(" %d could not be sent.", len(notes)-sent)
	}
	return Idle{}, reply(text, mainMenu...)
}

func (m *Machine) deleteNote(ctx context.Context, in Input) (State, []Reply) {
	keyword := services.NormalizeKeyword(in.Text)
	ok, err := m.vault.DeleteNote(ctx, in.ExternalID, keyword)
	if err != nil {
		return m.fail(ctx, "delete_note", err)
	}
	if !ok {
		return Idle{}, reply(fmt.Sprintf("No note found with keyword %s.", keyword), mainMenu...)
	}
	return Idle{}, reply(fmt.Sprintf("Note with keyword %s deleted permanently!", keyword), mainMenu...)
}

func (m *Machine) groupDeletion(ctx context.Context, s AwaitingGroupDeletion, in Input) (State, []Reply) {
	answer := strings.TrimSpace(in.Text)

	if s.Group == "" {
		if !slices.Contains(s.Groups, answer) {
			return s, reply("Choose one of your groups:", s.Groups...)
		}
		return AwaitingGroupDeletion{Group: answer},
			reply(fmt.Sprintf("Delete group %s and ALL notes in it?\nThis cannot be undone!", answer), OptionYes, OptionNo)
	}

	switch strings.ToLower(answer) {
	case OptionYes:
	case OptionNo:
		return Idle{}, reply("Cancelled.", mainMenu...)
	default:
		return s, reply("Answer yes or no.", OptionYes, OptionNo)
	}

	n, err := m.vault.DeleteGroup(ctx, in.ExternalID, s.Group)
	if err != nil {
		return m.fail(ctx, "delete_group", err)
	}
	return Idle{}, reply(fmt.Sprintf("Group %s deleted!\nRemoved %d note(s).", s.Group, n), mainMenu...)
}

func (m *Machine) clear(ctx context.Context, in Input) (State, []Reply) {
	switch strings.ToLower(strings.TrimSpace(in.Text)) {
	case OptionYes:
	case OptionNo:
		return Idle{}, reply("Cancelled.", mainMenu...)
	default:
		return AwaitingClearConfirm{}, reply("Answer yes or no.", OptionYes, OptionNo)
	}

	n, err := m.vault.ClearAll(ctx, in.ExternalID)
	if err != nil {
		return m.fail(ctx, "clear_all", err)
	}
	return Idle{}, reply(fmt.Sprintf("All notes deleted! Removed %d note(s).", n), mainMenu...)
}

func (m *Machine) deleteAccount(ctx context.Context, s AwaitingAccountConfirm, in Input) (State, []Reply) {
	err := m.vault.DeleteAccount(ctx, in.ExternalID, in.Text)
	if errors.Is(err, common.ErrorConfirmationMismatch) {
		return s, reply(fmt.Sprintf("Incorrect username. Type %s or send %s.", s.UserName, CmdCancel))
	}
	if err != nil {
		return m.fail(ctx, "delete_account", err)
	}
	return Idle{}, reply("Account and all data deleted permanently.", authMenu...)
}

func (m *Machine) send(ctx context.Context, externalID int64, note *models.Note) bool {
	if err := m.notifier.SendNote(ctx, externalID, note); err != nil {
		m.log.Warn(ctx, "send note failed", "keyword", note.Keyword, "err", err)
		return false
	}
	return true
}

// deliver sends notes in batches of batchSize and returns how many went
// out. A failed send is logged and skipped; a cancelled context stops
// delivery between batches.
func (m *Machine) deliver(ctx context.Context, externalID int64, notes []*models.Note) int {
	sent := 0
	for batch := range slices.Chunk(notes, m.batchSize) {
		if ctx.Err() != nil {
			break
		}
		for _, n := range batch {
			if m.send(ctx, externalID, n) {
				sent++
			}
		}
	}
	return sent
}
