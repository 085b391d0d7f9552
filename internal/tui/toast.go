package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastWarning
	toastError
)

func (l toastLevel) String() string {
	switch l {
	case toastSuccess:
		return "success"
	case toastWarning:
		return "warning"
	case toastError:
		return "error"
	default:
		return "info"
	}
}

// toast is a transient, non-blocking notification.
type toast struct {
	level toastLevel
	text  string
	seq   int
}

type toastExpiredMsg struct{ seq int }

// notify replaces the current toast and schedules its expiry. A later toast
// is never cleared by an earlier one's timer.
func (a *App) notify(level toastLevel, text string) tea.Cmd {
	a.toastSeq++
	a.toast = toast{level: level, text: text, seq: a.toastSeq}
	switch level {
	case toastError:
		a.log().Error("notify", "text", text)
	case toastWarning:
		a.log().Warn("notify", "text", text)
	default:
		a.log().Info("notify", "level", level.String(), "text", text)
	}
	if a.toastTTL <= 0 {
		return nil
	}
	seq := a.toastSeq
	return tea.Tick(a.toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (a *App) renderToast() string {
	if a.toast.text == "" {
		return ""
	}
	return toastStyles[a.toast.level].Render(a.toast.text)
}
