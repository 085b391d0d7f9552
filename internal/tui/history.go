package tui

import (
	"fmt"
	"strings"

	"github.com/jask/productdesk/internal/journal"
)

const historyLimit = 50

func (a *App) renderHistory() string {
	if len(a.history) == 0 {
		return mutedStyle.Render("No activity recorded")
	}
	lines := make([]string, 0, len(a.history))
	for _, e := range a.history {
		lines = append(lines, a.historyLine(e))
	}
	return strings.Join(lines, "\n")
}

func (a *App) historyLine(e journal.Entry) string {
	when := e.CreatedAt.In(a.loc).Format(a.cfg.UI.DateFormat)
	name := e.ProductName
	if name == "" {
		name = "-"
	}
	line := fmt.Sprintf("%-25s  %-6s  %s", when, e.Action, name)
	if e.Outcome == journal.OutcomeError {
		msg := e.Message
		if msg == "" {
			msg = "failed"
		}
		return line + "  " + errorStyle.Render(msg)
	}
	return line + "  " + subtleStyle.Render(string(e.Outcome))
}
