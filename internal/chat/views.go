package chat

import "github.com/ashureev/tutor-chat/internal/domain"

// MessageLog renders the ordered chat log.
type MessageLog interface {
	Append(msg domain.Message)
}

// InputControl is the text input together with its send control.
type InputControl interface {
	SetEnabled(enabled bool)
	SetSendEnabled(enabled bool)
	Clear()
	Focus()
}

// TypingIndicator is shown while a reply is pending.
type TypingIndicator interface {
	SetTypingVisible(visible bool)
}

// ErrorBanner is the dismissible user-facing error toast.
type ErrorBanner interface {
	ShowError(text string)
	HideError()
}

// StatusIndicator renders the backend health indicator.
type StatusIndicator interface {
	SetStatus(status domain.SystemStatus)
}

// Views bundles the view regions the controller drives. Implementations must
// be safe for concurrent use and must not call back into the Controller.
type Views struct {
	Log    MessageLog
	Input  InputControl
	Typing TypingIndicator
	Errors ErrorBanner
	Status StatusIndicator
}

// ViewSet is implemented by a view that provides every region itself.
type ViewSet interface {
	MessageLog
	InputControl
	TypingIndicator
	ErrorBanner
	StatusIndicator
}

// ViewsOf binds every region to v.
func ViewsOf(v ViewSet) Views {
	return Views{Log: v, Input: v, Typing: v, Errors: v, Status: v}
}

// Tee fans every view call out to each of the given view sets in order.
func Tee(sets ...ViewSet) Views {
	return ViewsOf(tee(sets))
}

type tee []ViewSet

func (t tee) Append(msg domain.Message) {
	for _, v := range t {
		v.Append(msg)
	}
}

func (t tee) SetEnabled(enabled bool) {
	for _, v := range t {
		v.SetEnabled(enabled)
	}
}

func (t tee) SetSendEnabled(enabled bool) {
	for _, v := range t {
		v.SetSendEnabled(enabled)
	}
}

func (t tee) Clear() {
	for _, v := range t {
		v.Clear()
	}
}

func (t tee) Focus() {
	for _, v := range t {
		v.Focus()
	}
}

func (t tee) SetTypingVisible(visible bool) {
	for _, v := range t {
		v.SetTypingVisible(visible)
	}
}

func (t tee) ShowError(text string) {
	for _, v := range t {
		v.ShowError(text)
	}
}

func (t tee) HideError() {
	for _, v := range t {
		v.HideError()
	}
}

func (t tee) SetStatus(status domain.SystemStatus) {
	for _, v := range t {
		v.SetStatus(status)
	}
}
