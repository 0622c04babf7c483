package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/notevault/internal/conversation"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/google/uuid"
)

// Local commands handled by the REPL itself.
const (
	cmdAttach = "/attach"
	cmdMulti  = "/multi"
)

// newMediaID is a seam for deterministic attachment ids in tests.
var newMediaID = func() string { return uuid.NewString() }

// handler is the conversation surface the REPL drives. *conversation.Machine
// satisfies it; tests can provide a lightweight stub.
type handler interface {
	Handle(ctx context.Context, st conversation.State, in conversation.Input) (conversation.State, []conversation.Reply)
}

// REPL runs one terminal conversation for a fixed external id.
type REPL struct {
	handler    handler
	externalID int64
	reader     *bufio.Reader
	out        io.Writer
	styles     styles
	state      conversation.State
}

func NewREPL(h handler, externalID int64, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		handler:    h,
		externalID: externalID,
		reader:     bufio.NewReader(in),
		out:        out,
		styles:     newStyles(out),
		state:      conversation.Idle{},
	}
}

// Run greets the user and then reads one message per line until EOF, "exit"
// or "quit", or until ctx is done.
//
// Besides the conversation commands two local ones are understood:
//
//	/attach <type> <path> [caption]  send a file as photo, video, video_note, voice or document
//	/multi                           send a multi-line text message
//
// While a password is expected, input is read without echo if stdin is a
// terminal.
func (r *REPL) Run(ctx context.Context) error {
	r.dispatch(ctx, conversation.Input{Text: conversation.CmdStart})

	for {
		line, err := r.next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				fmt.Fprintln(r.out, "Bye!")
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		in := conversation.Input{Text: line}
		switch fields[0] {
		case "exit", "quit":
			fmt.Fprintln(r.out, "Bye!")
			return nil

		case cmdAttach:
			att, err := parseAttachment(fields[1:])
			if err != nil {
				fmt.Fprintln(r.out, r.styles.warn.Render(err.Error()))
				continue
			}
			in = conversation.Input{Attachment: att}

		case cmdMulti:
			text, err := GetMultiline(r.reader, "Enter text", r.out)
			if err != nil {
				return err
			}
			in.Text = text
		}

		r.dispatch(ctx, in)
	}
}

func (r *REPL) dispatch(ctx context.Context, in conversation.Input) {
	in.ExternalID = r.externalID
	st, replies := r.handler.Handle(ctx, r.state, in)
	r.state = st
	for _, rep := range replies {
		fmt.Fprintln(r.out, rep.Text)
		if len(rep.Options) > 0 {
			fmt.Fprintln(r.out, r.styles.options(rep.Options))
		}
	}
}

// next reads one line without blocking cancellation. The reading goroutine
// may outlive a cancelled call; it finishes on the next line or EOF.
func (r *REPL) next(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}

	prompt := r.styles.prompt.Render("nv>") + " "
	_, secret := r.state.(conversation.AwaitingPassword)

	if _, err := fmt.Fprint(r.out, prompt); err != nil {
		return "", err
	}

	ch := make(chan result, 1)
	go func() {
		var res result
		if secret {
			res.line, res.err = GetPassword(r.reader, "", r.out)
		} else {
			res.line, res.err = GetSimpleText(r.reader, "", r.out)
		}
		ch <- res
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

// parseAttachment turns "/attach <type> <path> [caption]" arguments into an
// attachment. The file is opened only when the note is saved.
func parseAttachment(args []string) (*conversation.Attachment, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: %s <type> <path> [caption]", cmdAttach)
	}

	t, err := models.ParseNoteType(args[0])
	if err != nil || !t.HasMedia() {
		return nil, errors.New("attachment type must be photo, video, video_note, voice or document")
	}

	path := args[1]
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	open := func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	return &conversation.Attachment{
		Type:    t,
		ID:      newMediaID() + strings.ToLower(filepath.Ext(path)),
		Caption: strings.Join(args[2:], " "),
		Open:    open,
	}, nil
}
