// Package chat implements the chat session controller: one request/response
// cycle per submitted message, rendered through injected view ports.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/tutor-chat/internal/clock"
	"github.com/ashureev/tutor-chat/internal/domain"
)

// FailureMessage is the only text a user ever sees for a failed turn.
const FailureMessage = "Failed to get response. Please try again."

// DefaultErrorDisplayDuration is how long the error banner stays up.
const DefaultErrorDisplayDuration = 5 * time.Second

// Backend is the remote chat service.
type Backend interface {
	Chat(ctx context.Context, message, studentID string) (*domain.ChatResponse, error)
	Health(ctx context.Context) (*domain.HealthResponse, error)
}

// SessionIDs supplies the persisted session identifier.
type SessionIDs interface {
	SessionID(ctx context.Context) (string, error)
}

// Outcome reports what a Submit call did.
type Outcome int

const (
	// OutcomeIgnored means the input was empty after trimming.
	OutcomeIgnored Outcome = iota
	// OutcomeBusy means another turn was still in flight.
	OutcomeBusy
	// OutcomeReplied means a bot message was appended.
	OutcomeReplied
	// OutcomeFailed means the error banner was shown.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeBusy:
		return "busy"
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// UIState is a snapshot of the controller's transient presentation flags.
type UIState struct {
	InputEnabled  bool                `json:"input_enabled"`
	SendEnabled   bool                `json:"send_enabled"`
	TypingVisible bool                `json:"typing_visible"`
	ErrorVisible  bool                `json:"error_visible"`
	ErrorText     string              `json:"error_text,omitempty"`
	Status        domain.SystemStatus `json:"status"`
}

// Config holds controller dependencies.
type Config struct {
	Backend              Backend
	Sessions             SessionIDs
	Views                Views
	Clock                clock.Clock
	ErrorDisplayDuration time.Duration
	Logger               *slog.Logger
}

// Controller mediates chat turns between the input, the backend and the views.
type Controller struct {
	backend       Backend
	sessions      SessionIDs
	views         Views
	clock         clock.Clock
	errorDuration time.Duration
	logger        *slog.Logger

	// sendMu is held for the whole Sending state; TryLock rejects re-entry.
	sendMu sync.Mutex

	mu         sync.Mutex // guards the fields below and serializes view calls
	state      UIState
	messages   []domain.Message
	errorTimer clock.Timer
	errorGen   uint64
}

var errMissingDependency = errors.New("missing controller dependency")

// NewController validates cfg and returns a Controller in the Idle state.
func NewController(cfg Config) (*Controller, error) {
	v := cfg.Views
	if cfg.Backend == nil || cfg.Sessions == nil {
		return nil, fmt.Errorf("%w: backend and sessions are required", errMissingDependency)
	}
	if v.Log == nil || v.Input == nil || v.Typing == nil || v.Errors == nil || v.Status == nil {
		return nil, fmt.Errorf("%w: every view region is required", errMissingDependency)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.ErrorDisplayDuration <= 0 {
		cfg.ErrorDisplayDuration = DefaultErrorDisplayDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		backend:       cfg.Backend,
		sessions:      cfg.Sessions,
		views:         v,
		clock:         cfg.Clock,
		errorDuration: cfg.ErrorDisplayDuration,
		logger:        cfg.Logger,
		state: UIState{
			InputEnabled: true,
			SendEnabled:  false,
			Status:       domain.StatusUnknown,
		},
	}, nil
}

// Start focuses the input and runs the one-off health check.
func (c *Controller) Start(ctx context.Context) domain.SystemStatus {
	c.mu.Lock()
	c.views.Input.Focus()
	c.mu.Unlock()
	return c.CheckHealth(ctx)
}

// Submit runs one chat turn for rawInput. It blocks until the backend
// answers or ctx is done.
func (c *Controller) Submit(ctx context.Context, rawInput string) Outcome {
	text := strings.TrimSpace(rawInput)
	if text == "" {
		return OutcomeIgnored
	}
	if !c.sendMu.TryLock() {
		c.logger.Debug("Chat turn rejected, another turn is in flight")
		return OutcomeBusy
	}
	defer c.sendMu.Unlock()

	c.mu.Lock()
	c.setInputLocked(false)
	c.appendLocked(domain.NewUserMessage(text, c.clock.Now()))
	c.views.Input.Clear()
	c.setTypingLocked(true)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.setInputLocked(true)
		c.views.Input.Focus()
		c.mu.Unlock()
	}()

	resp, err := c.dispatch(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setTypingLocked(false)
	if err != nil {
		c.logger.Error("Chat error", "error", err)
		c.showErrorLocked(FailureMessage)
		return OutcomeFailed
	}

	c.appendLocked(domain.NewBotMessage(
		resp.Response,
		DisplayName(resp.Agent),
		resp.Subject,
		resp.ToolsUsed,
		c.clock.Now(),
	))
	return OutcomeReplied
}

func (c *Controller) dispatch(ctx context.Context, text string) (*domain.ChatResponse, error) {
	sessionID, err := c.sessions.SessionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session id: %w", err)
	}
	c.logger.Info("Chat request", "student_id", sessionID, "message_length", len(text))
	resp, err := c.backend.Chat(ctx, text, sessionID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty chat response")
	}
	return resp, nil
}

// CheckHealth probes the backend and renders the status indicator. Failures
// only change the indicator.
func (c *Controller) CheckHealth(ctx context.Context) domain.SystemStatus {
	status := domain.StatusOffline
	health, err := c.backend.Health(ctx)
	switch {
	case err != nil:
		c.logger.Debug("Health check failed", "error", err)
	case health == nil:
		c.logger.Debug("Health check returned no body")
	case health.IsHealthy():
		status = domain.StatusOnline
		c.logger.Debug("Health check passed", "agents", health.Agents, "message", health.Message)
	default:
		c.logger.Debug("Backend not healthy", "status", health.Status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = status
	c.views.Status.SetStatus(status)
	return status
}

// InputChanged enables the send control only when text has content and no
// turn is in flight.
func (c *Controller) InputChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.InputEnabled {
		return
	}
	enabled := strings.TrimSpace(text) != ""
	if enabled == c.state.SendEnabled {
		return
	}
	c.state.SendEnabled = enabled
	c.views.Input.SetSendEnabled(enabled)
}

// DismissError hides the error banner and cancels its pending auto-hide.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hideErrorLocked()
}

// State returns a snapshot of the presentation flags.
func (c *Controller) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the message log in display order.
func (c *Controller) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) setInputLocked(enabled bool) {
	c.state.InputEnabled = enabled
	c.state.SendEnabled = enabled
	c.views.Input.SetEnabled(enabled)
	c.views.Input.SetSendEnabled(enabled)
}

func (c *Controller) setTypingLocked(visible bool) {
	c.state.TypingVisible = visible
	c.views.Typing.SetTypingVisible(visible)
}

func (c *Controller) appendLocked(msg domain.Message) {
	c.messages = append(c.messages, msg)
	c.views.Log.Append(msg)
}

// showErrorLocked shows the banner and (re)arms the auto-hide timer. Only the
// timer armed by the latest show can hide the banner.
func (c *Controller) showErrorLocked(text string) {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
	}
	c.errorGen++
	gen := c.errorGen
	c.state.ErrorVisible = true
	c.state.ErrorText = text
	c.views.Errors.ShowError(text)
	c.errorTimer = c.clock.AfterFunc(c.errorDuration, func() {
		c.expireError(gen)
	})
}

func (c *Controller) expireError(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.errorGen {
		return
	}
	c.hideErrorLocked()
}

func (c *Controller) hideErrorLocked() {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
		c.errorTimer = nil
	}
	if !c.state.ErrorVisible {
		return
	}
	c.state.ErrorVisible = false
	c.state.ErrorText = ""
	c.views.Errors.HideError()
}
