// Package terminal renders the chat in a line-oriented terminal and drives
// the controller from lines read on standard input.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/domain"
	"github.com/fatih/color"
)

const timeLayout = "15:04"

// View writes chat output to a terminal. It implements chat.ViewSet.
type View struct {
	mu           sync.Mutex
	out          io.Writer
	inputEnabled bool
	errorVisible bool
	status       domain.SystemStatus

	you     *color.Color
	bot     *color.Color
	meta    *color.Color
	tools   *color.Color
	errText *color.Color
	online  *color.Color
	offline *color.Color
}

var _ chat.ViewSet = (*View)(nil)

// NewView returns a View writing to out. colored=false strips ANSI codes.
func NewView(out io.Writer, colored bool) *View {
	v := &View{
		out:          out,
		inputEnabled: true,
		status:       domain.StatusUnknown,
		you:          color.New(color.FgGreen, color.Bold),
		bot:          color.New(color.FgCyan, color.Bold),
		meta:         color.New(color.Faint),
		tools:        color.New(color.FgYellow),
		errText:      color.New(color.FgRed, color.Bold),
		online:       color.New(color.FgGreen),
		offline:      color.New(color.FgRed),
	}
	if !colored {
		for _, c := range []*color.Color{v.you, v.bot, v.meta, v.tools, v.errText, v.online, v.offline} {
			c.DisableColor()
		}
	}
	return v
}

// Append prints one message.
func (v *View) Append(msg domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ts := v.meta.Sprintf("[%s]", msg.Timestamp.Format(timeLayout))
	switch msg.Sender {
	case domain.SenderUser:
		v.printf("%s %s %s\n", ts, v.you.Sprint("You:"), msg.Text)
	default:
		label := msg.AgentName
		if label == "" {
			label = "Tutor"
		}
		if msg.Subject != "" {
			label += " (" + msg.Subject + ")"
		}
		v.printf("%s %s %s\n", ts, v.bot.Sprint(label+":"), msg.Text)
		if msg.HasTools() {
			v.printf("    %s\n", v.tools.Sprint("Tools used: "+strings.Join(msg.ToolsUsed, ", ")))
		}
	}
}

// SetEnabled records whether the prompt may be shown.
func (v *View) SetEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputEnabled = enabled
}

// SetSendEnabled is a no-op: Enter is the send control.
func (v *View) SetSendEnabled(bool) {}

// Clear is a no-op: the terminal line is consumed on Enter.
func (v *View) Clear() {}

// Focus prints the input prompt when input is enabled.
func (v *View) Focus() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inputEnabled {
		v.printf("%s ", v.you.Sprint("You>"))
	}
}

// SetTypingVisible prints a typing notice when the indicator is shown.
func (v *View) SetTypingVisible(visible bool) {
	if !visible {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printf("%s\n", v.meta.Sprint("Tutor is typing..."))
}

// ShowError prints the banner text.
func (v *View) ShowError(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorVisible = true
	v.printf("%s %s\n", v.errText.Sprint("!"), v.errText.Sprint(text))
}

// HideError clears the banner flag. Printed lines cannot be retracted.
func (v *View) HideError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorVisible = false
}

// SetStatus prints the system status line.
func (v *View) SetStatus(status domain.SystemStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
	switch status {
	case domain.StatusOnline:
		v.printf("%s System Online\n", v.online.Sprint("●"))
	case domain.StatusOffline:
		v.printf("%s System Offline\n", v.offline.Sprint("●"))
	}
}

// ErrorVisible reports whether the banner is currently up.
func (v *View) ErrorVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errorVisible
}

// Status returns the last rendered status.
func (v *View) Status() domain.SystemStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *View) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(v.out, format, args...)
}
