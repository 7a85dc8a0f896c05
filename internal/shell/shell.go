// Package shell is the interactive presentation layer: a line-oriented
// REPL composing the session store, the chat controller, and the list
// views, gated on authentication.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/capitalize-ai/conversational-console/internal/api"
	"github.com/capitalize-ai/conversational-console/internal/chat"
	"github.com/capitalize-ai/conversational-console/internal/event"
	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/internal/session"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

// Options configures a Shell.
type Options struct {
	In             io.Reader
	Out            io.Writer
	API            *api.Client
	Session        *session.Store
	Chat           *chat.Controller
	Bus            *event.Bus
	Logger         *logger.Logger
	RequestTimeout time.Duration
	ChatTimeout    time.Duration
}

// Shell drives the console.
type Shell struct {
	in  *bufio.Scanner
	out io.Writer

	api     *api.Client
	session *session.Store
	chat    *chat.Controller
	bus     *event.Bus
	logger  *logger.Logger

	requestTimeout time.Duration
	chatTimeout    time.Duration

	// readPassword is swappable so tests can script credential entry.
	readPassword func(prompt string) (string, error)

	ctx           context.Context
	conversations []model.Conversation
	documents     []model.Document
	users         []model.User
}

// New creates a shell. It subscribes to the bus so the sidebar cache
// follows conversation changes made by the chat view.
func New(opts Options) *Shell {
	s := &Shell{
		in:             bufio.NewScanner(opts.In),
		out:            opts.Out,
		api:            opts.API,
		session:        opts.Session,
		chat:           opts.Chat,
		bus:            opts.Bus,
		logger:         opts.Logger,
		requestTimeout: opts.RequestTimeout,
		chatTimeout:    opts.ChatTimeout,
	}
	if s.requestTimeout == 0 {
		s.requestTimeout = 15 * time.Second
	}
	if s.chatTimeout == 0 {
		s.chatTimeout = 2 * time.Minute
	}
	s.readPassword = s.defaultReadPassword

	s.bus.Subscribe(func(ev event.Event) {
		switch ev.(type) {
		case event.ConversationCreated, event.ConversationUpdated, event.ConversationDeleted:
			s.refreshConversations()
		}
	})

	return s
}

// Run starts the REPL and blocks until quit, EOF, or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.ctx = ctx

	fmt.Fprintln(s.out, "conversational console")
	if user := s.session.Current(); user != nil {
		fmt.Fprintf(s.out, "logged in as %s (%s)\n", user.Name, user.Email)
	} else {
		fmt.Fprintln(s.out, "not logged in; use login or register")
	}
	fmt.Fprintln(s.out, `type "help" for commands`)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(s.out, s.prompt())
		if !s.in.Scan() {
			return s.in.Err()
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		if quit := s.dispatch(line); quit {
			fmt.Fprintln(s.out, "bye")
			return nil
		}
	}
}

func (s *Shell) prompt() string {
	if _, title := s.chat.Active(); title != "" {
		return title + "> "
	}
	return "> "
}

// dispatch runs one command line. It returns true when the shell
// should exit.
func (s *Shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp()
	case "health":
		s.cmdHealth()
	case "login":
		s.cmdLogin(args)
	case "register":
		s.cmdRegister()
	case "logout":
		s.cmdLogout()
	case "whoami":
		s.cmdWhoami()
	case "new":
		s.authenticated(func() { s.cmdNew() })
	case "list":
		s.authenticated(func() { s.cmdList() })
	case "open":
		s.authenticated(func() { s.cmdOpen(args) })
	case "show":
		s.authenticated(func() { s.cmdShow() })
	case "rename":
		s.authenticated(func() { s.cmdRename(args) })
	case "delete":
		s.authenticated(func() { s.cmdDelete() })
	case "docs":
		s.authenticated(func() { s.cmdDocs() })
	case "upload":
		s.authenticated(func() { s.cmdUpload(args) })
	case "docvis":
		s.authenticated(func() { s.cmdDocVisibility(args) })
	case "docdel":
		s.authenticated(func() { s.cmdDocDelete(args) })
	case "users", "useradd", "usermod", "userdel":
		// The users surface does not exist for non-admin sessions, not
		// even as a rejected command.
		if !s.session.IsAdmin() {
			s.unknown(cmd)
			return false
		}
		switch cmd {
		case "users":
			s.cmdUsers()
		case "useradd":
			s.cmdUserAdd(args)
		case "usermod":
			s.cmdUserMod(args)
		case "userdel":
			s.cmdUserDelete(args)
		}
	default:
		// Any other input while logged in is a chat message.
		if s.session.Authenticated() {
			s.cmdSend(line)
			return false
		}
		s.unknown(cmd)
	}

	return false
}

func (s *Shell) authenticated(fn func()) {
	if !s.session.Authenticated() {
		fmt.Fprintln(s.out, "please login first")
		return
	}
	fn()
}

func (s *Shell) unknown(cmd string) {
	fmt.Fprintf(s.out, "unknown command: %s\n", cmd)
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  login [email]      authenticate
  register           create an account and log in
  logout             clear the session
  whoami             show the current identity
  health             check the backend
  new                start a new chat
  list               list conversations
  open N             open conversation N from the list
  show               print the current transcript
  rename TITLE...    rename the open conversation
  delete             delete the open conversation
  docs               list documents
  upload PATH        upload a document
  docvis N           toggle document N's visibility
  docdel N           delete document N from the list
  quit               exit
anything else is sent as a chat message
`)
	if s.session.IsAdmin() {
		fmt.Fprint(s.out, `admin:
  users                    list users
  useradd EMAIL NAME...    create a user
  usermod N ROLE           change a user's role
  userdel N                delete user N from the list
  upload PATH shared       upload to the shared library
`)
	}
}

// requestCtx bounds a single backend call.
func (s *Shell) requestCtx() (context.Context, context.CancelFunc) {
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.requestTimeout)
}

func (s *Shell) sendCtx() (context.Context, context.CancelFunc) {
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.chatTimeout)
}

// fail renders a backend failure inline. fallback is used when the
// error carries no detail at all.
func (s *Shell) fail(err error, fallback string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		fmt.Fprintf(s.out, "error: %s\n", apiErr.Detail)
		return
	}
	if err != nil && err.Error() != "" {
		fmt.Fprintf(s.out, "error: %s\n", err.Error())
		return
	}
	fmt.Fprintf(s.out, "error: %s\n", fallback)
}

// confirm asks a y/N question on the same input stream.
func (s *Shell) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [y/N] ", question)
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return answer == "y" || answer == "yes"
}

// promptLine reads one line with a prompt.
func (s *Shell) promptLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// defaultReadPassword suppresses echo on a real terminal and falls
// back to a plain line read when input is piped.
func (s *Shell) defaultReadPassword(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		defer fmt.Fprintln(s.out)
		data, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	if !s.in.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) cmdHealth() {
	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.api.Health(ctx); err != nil {
		s.fail(err, "backend is unreachable")
		return
	}
	fmt.Fprintln(s.out, "backend is healthy")
}

func (s *Shell) cmdWhoami() {
	user := s.session.Current()
	if user == nil {
		fmt.Fprintln(s.out, "not logged in")
		return
	}
	fmt.Fprintf(s.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
}

func (s *Shell) cmdLogin(args []string) {
	var (
		email string
		err   error
	)
	if len(args) > 0 {
		email = args[0]
	} else {
		email, err = s.promptLine("email: ")
		if err != nil || email == "" {
			fmt.Fprintln(s.out, "email is required")
			return
		}
	}

	password, err := s.readPassword("password: ")
	if err != nil || password == "" {
		fmt.Fprintln(s.out, "password is required")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	user, err := s.session.Login(ctx, email, password)
	if err != nil {
		s.fail(err, "login failed")
		return
	}

	fmt.Fprintf(s.out, "logged in as %s (%s)\n", user.Name, user.Email)
	s.logger.Info("login from shell", zap.String("user_id", user.ID))
	s.refreshConversations()
}

func (s *Shell) cmdRegister() {
	email, err := s.promptLine("email: ")
	if err != nil || email == "" {
		fmt.Fprintln(s.out, "email is required")
		return
	}
	name, err := s.promptLine("name: ")
	if err != nil || name == "" {
		fmt.Fprintln(s.out, "name is required")
		return
	}
	password, err := s.readPassword("password: ")
	if err != nil || password == "" {
		fmt.Fprintln(s.out, "password is required")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	user, err := s.session.Register(ctx, email, name, password)
	if err != nil {
		s.fail(err, "registration failed")
		return
	}

	fmt.Fprintf(s.out, "registered and logged in as %s (%s)\n", user.Name, user.Email)
}

func (s *Shell) cmdLogout() {
	if err := s.session.Logout(); err != nil {
		s.fail(err, "logout failed")
		return
	}
	s.chat.NewChat()
	s.conversations = nil
	s.documents = nil
	fmt.Fprintln(s.out, "logged out")
}
