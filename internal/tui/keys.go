package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
)

type keyMap struct {
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Find      key.Binding
	Backend   key.Binding
	History   key.Binding
	Clear     key.Binding
	Back      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Submit    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new product")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "delete")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Find:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
		Backend:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "backend url")),
		History:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear history")),
		Back:      key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "back")),
		Confirm:   key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "yes")),
		Cancel:    key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// tableKeyMap is table.DefaultKeyMap without the single-letter bindings the
// list screen uses for actions.
func tableKeyMap() table.KeyMap {
	return table.KeyMap{
		LineUp:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		LineDown:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ page up")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down")),
		GotoTop:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		GotoBottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	}
}

// helpLine renders bindings as "[k] desc" pairs.
func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
