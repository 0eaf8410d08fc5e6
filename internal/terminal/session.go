package terminal

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/domain"
)

// Controller is the part of chat.Controller the terminal loop drives.
type Controller interface {
	Submit(ctx context.Context, rawInput string) chat.Outcome
	DismissError()
	CheckHealth(ctx context.Context) domain.SystemStatus
}

// Resetter forgets the persisted session id.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Session reads lines from an input stream and feeds them to a Controller.
type Session struct {
	ctrl     Controller
	view     *View
	in       io.Reader
	logger   *slog.Logger
	resetter Resetter
}

// NewSession creates a Session reading from in.
func NewSession(ctrl Controller, view *View, in io.Reader, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{ctrl: ctrl, view: view, in: in, logger: logger}
}

// SetResetter enables the /reset command.
func (s *Session) SetResetter(r Resetter) {
	s.resetter = r
}

// Run processes input until EOF, an exit command, or ctx is done.
//
// Lines starting with a known slash command are handled locally; any other
// line is submitted as a chat message.
func (s *Session) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if !s.handle(ctx, line) {
				return nil
			}
		}
	}
}

// handle processes one line and reports whether to keep reading.
func (s *Session) handle(ctx context.Context, line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "/exit", "/quit":
		return false
	case "/dismiss":
		s.ctrl.DismissError()
		s.view.Focus()
		return true
	case "/health":
		s.ctrl.CheckHealth(ctx)
		s.view.Focus()
		return true
	case "/reset":
		s.reset(ctx)
		s.view.Focus()
		return true
	case "/help":
		s.view.printHelp()
		s.view.Focus()
		return true
	}

	outcome := s.ctrl.Submit(ctx, line)
	s.logger.Debug("Chat turn finished", "outcome", outcome.String())
	if outcome == chat.OutcomeIgnored {
		s.view.Focus()
	}
	return true
}

func (s *Session) reset(ctx context.Context) {
	if s.resetter == nil {
		s.view.printNotice("Session reset is not available.")
		return
	}
	if err := s.resetter.Reset(ctx); err != nil {
		s.logger.Error("Failed to reset session id", "error", err)
		s.view.printNotice("Could not reset the session.")
		return
	}
	s.logger.Info("Session id reset")
	s.view.printNotice("Started a new session.")
}

func (v *View) printHelp() {
	v.printNotice("Commands: /dismiss /health /reset /help exit")
}

func (v *View) printNotice(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printf("%s\n", v.meta.Sprint(text))
}
