package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/productdesk/internal/backend"
)

type formField struct {
	label       string
	placeholder string
	limit       int
}

var productFields = []formField{
	{label: "Name", placeholder: "Product name", limit: 120},
	{label: "Description", placeholder: "Short description", limit: 500},
}

type formResult int

const (
	formPending formResult = iota
	formCancelled
	formSubmitted
)

// productForm is the create/edit modal. A nil original means create mode.
type productForm struct {
	original   *backend.Product
	inputs     []textinput.Model
	focus      int
	err        string
	submitting bool
	keys       keyMap
}

func newProductForm(original *backend.Product, keys keyMap) (productForm, tea.Cmd) {
	values := []string{"", ""}
	if original != nil {
		values = []string{original.Name, original.Description}
	}
	f := productForm{original: original, keys: keys}
	for i, field := range productFields {
		in := textinput.New()
		in.Prompt = field.label + ": "
		in.Placeholder = field.placeholder
		in.CharLimit = field.limit
		in.Width = 48
		in.SetValue(values[i])
		f.inputs = append(f.inputs, in)
	}
	cmd := f.inputs[0].Focus()
	return f, cmd
}

func (f productForm) editing() bool { return f.original != nil }

func (f productForm) title() string {
	if f.editing() {
		return "Edit Product"
	}
	return "New Product"
}

// product merges the typed values into the record being edited, so fields the
// form does not show are sent back unchanged.
func (f productForm) product() backend.Product {
	var p backend.Product
	if f.original != nil {
		p = *f.original
	}
	p.Name = strings.TrimSpace(f.inputs[0].Value())
	p.Description = strings.TrimSpace(f.inputs[1].Value())
	return p
}

func (f productForm) Update(msg tea.Msg) (productForm, tea.Cmd, formResult) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case km.String() == "esc":
			return f, nil, formCancelled
		case key.Matches(km, f.keys.Submit):
			if f.submitting {
				return f, nil, formPending
			}
			if strings.TrimSpace(f.inputs[0].Value()) == "" {
				f.err = "Name is required"
				return f, nil, formPending
			}
			f.err = ""
			f.submitting = true
			return f, nil, formSubmitted
		case key.Matches(km, f.keys.NextField):
			return f, f.move(1), formPending
		case key.Matches(km, f.keys.PrevField):
			return f, f.move(-1), formPending
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, formPending
}

func (f *productForm) move(dir int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + dir + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f productForm) View() string {
	lines := []string{titleStyle.Render(f.title()), ""}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	status := helpLine(f.keys.Submit, f.keys.NextField) + "  [esc] cancel"
	if f.submitting {
		status = loadingStyle.Render("saving...")
	}
	lines = append(lines, "", mutedStyle.Render(status))
	return strings.Join(lines, "\n")
}
