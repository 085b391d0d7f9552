package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/productdesk/internal/backend"
	"github.com/jask/productdesk/internal/config"
	"github.com/jask/productdesk/internal/journal"
	"github.com/jask/productdesk/internal/service"
)

// App is the product admin screen.
type App struct {
	ctx  context.Context
	deps Deps
	cfg  config.Config
	loc  *time.Location
	keys keyMap

	view     appView
	modal    modalState
	products []backend.Product
	selected *backend.Product
	loading  bool
	history  []journal.Entry

	table     table.Model
	form      productForm
	findInput textinput.Model
	urlInput  textinput.Model

	toast    toast
	toastSeq int
	toastTTL time.Duration

	width  int
	height int
}

// ProductService is what the screen needs from service.Products.
type ProductService interface {
	Fetch(ctx context.Context) ([]backend.Product, error)
	Save(ctx context.Context, p backend.Product) (backend.Product, error)
	Delete(ctx context.Context, p backend.Product) error
}

// History reads and clears the activity journal.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Clear(ctx context.Context) error
}

// Endpoint exposes the backend URL so it can be switched at runtime.
type Endpoint interface {
	BaseURL() string
	SetBaseURL(u string)
}

// Deps are the collaborators the screen drives. Products is required.
type Deps struct {
	Products   ProductService
	History    History
	Endpoint   Endpoint
	SaveConfig func(config.Config) error
	Logger     service.Logger
}

type appView string

const (
	viewProducts appView = "products"
	viewHistory  appView = "history"
)

type modalState string

const (
	modalNone          modalState = ""
	modalForm          modalState = "form"
	modalConfirmDelete modalState = "confirmDelete"
	modalFind          modalState = "find"
	modalBackendURL    modalState = "backendURL"
	modalConfirmClear  modalState = "confirmClear"
)

func New(ctx context.Context, cfg config.Config, deps Deps, tz *time.Location) *App {
	if tz == nil {
		tz = time.Local
	}
	if cfg.UI.DateFormat == "" {
		cfg.UI.DateFormat = config.DefaultDateFormat
	}
	find := textinput.New()
	find.Prompt = "/ "
	find.Placeholder = "product name"
	find.Width = 40
	url := textinput.New()
	url.Prompt = "URL: "
	url.CharLimit = 512
	url.Width = 56
	return &App{
		ctx:       ctx,
		deps:      deps,
		cfg:       cfg,
		loc:       tz,
		keys:      newKeyMap(),
		view:      viewProducts,
		table:     newProductTable(),
		findInput: find,
		urlInput:  url,
		toastTTL:  cfg.UI.ToastTTL,
	}
}

func (a *App) Init() tea.Cmd {
	a.loading = true
	return a.fetchCmd()
}

type productsMsg []backend.Product

type fetchFailedMsg struct{ err error }

type savedMsg struct {
	created bool
	product backend.Product
}

type saveFailedMsg struct{ err error }

type deletedMsg struct{ product backend.Product }

type deleteFailedMsg struct{ err error }

type historyMsg []journal.Entry

type historyClearedMsg struct{}

type backendURLSavedMsg struct{ err error }

type errMsg struct{ error }

func (a *App) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := a.deps.Products.Fetch(a.ctx)
		if err != nil {
			return fetchFailedMsg{err}
		}
		return productsMsg(list)
	}
}

func (a *App) saveCmd(p backend.Product) tea.Cmd {
	created := p.IsNew()
	return func() tea.Msg {
		out, err := a.deps.Products.Save(a.ctx, p)
		if err != nil {
			return saveFailedMsg{err}
		}
		return savedMsg{created: created, product: out}
	}
}

func (a *App) deleteCmd(p backend.Product) tea.Cmd {
	return func() tea.Msg {
		if err := a.deps.Products.Delete(a.ctx, p); err != nil {
			return deleteFailedMsg{err}
		}
		return deletedMsg{product: p}
	}
}

func (a *App) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.deps.History.Recent(a.ctx, historyLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(entries)
	}
}

func (a *App) clearHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.deps.History.Clear(a.ctx); err != nil {
			return errMsg{err}
		}
		return historyClearedMsg{}
	}
}

func (a *App) saveConfigCmd(cfg config.Config) tea.Cmd {
	if a.deps.SaveConfig == nil {
		return nil
	}
	return func() tea.Msg {
		return backendURLSavedMsg{err: a.deps.SaveConfig(cfg)}
	}
}

// refresh marks a fetch as outstanding. Concurrent fetches are not
// de-duplicated; whichever answers last wins.
func (a *App) refresh() tea.Cmd {
	a.loading = true
	return a.fetchCmd()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.table.SetColumns(fitColumns(m.Width))
		a.table.SetHeight(max(3, m.Height-8))
		return a, nil
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.view == viewHistory {
			return a.handleHistoryKey(m)
		}
		return a.handleListKey(m)
	case productsMsg:
		a.loading = false
		a.setProducts([]backend.Product(m))
	case fetchFailedMsg:
		a.loading = false
		if errors.Is(m.err, backend.ErrNotCollection) {
			// an answer that is not a list means there is nothing to show
			a.log().Warn("fetch products", "err", m.err)
			a.setProducts(nil)
			return a, nil
		}
		return a, a.notify(toastError, "Error fetching products: "+service.ErrorText(m.err))
	case savedMsg:
		// the form may have been dismissed while the save was in flight
		if a.modal == modalForm {
			a.modal = modalNone
			a.selected = nil
		}
		text := "Product Updated"
		if m.created {
			text = "Product Created"
		}
		return a, tea.Batch(a.notify(toastSuccess, text), a.refresh())
	case saveFailedMsg:
		a.form.submitting = false
		return a, a.notify(toastError, "Error occurred: "+service.ErrorText(m.err))
	case deletedMsg:
		a.selected = nil
		return a, tea.Batch(a.notify(toastSuccess, "Product Deleted"), a.refresh())
	case deleteFailedMsg:
		a.selected = nil
		return a, a.notify(toastError, "Error occurred: "+service.ErrorText(m.err))
	case historyMsg:
		a.history = []journal.Entry(m)
	case historyClearedMsg:
		a.history = nil
		return a, a.notify(toastInfo, "History cleared")
	case backendURLSavedMsg:
		if m.err != nil {
			return a, a.notify(toastWarning, "Backend URL applied but not saved: "+m.err.Error())
		}
		return a, a.notify(toastInfo, "Backend URL saved")
	case toastExpiredMsg:
		if m.seq == a.toastSeq {
			a.toast = toast{}
		}
	case errMsg:
		return a, a.notify(toastError, "Error occurred: "+m.Error())
	default:
		// cursor blink and other input internals
		var cmd tea.Cmd
		switch a.modal {
		case modalForm:
			a.form, cmd, _ = a.form.Update(msg)
		case modalFind:
			a.findInput, cmd = a.findInput.Update(msg)
		case modalBackendURL:
			a.urlInput, cmd = a.urlInput.Update(msg)
		}
		return a, cmd
	}
	return a, nil
}

func (a *App) setProducts(list []backend.Product) {
	a.products = list
	a.table.SetRows(productRows(list, a.cfg.UI.DateFormat, a.loc))
}

func (a *App) current() (backend.Product, bool) {
	i := a.table.Cursor()
	if i < 0 || i >= len(a.products) {
		return backend.Product{}, false
	}
	return a.products[i], true
}

func (a *App) handleListKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.New):
		a.selected = nil
		return a, a.openForm(nil)
	case key.Matches(m, a.keys.Edit):
		p, ok := a.current()
		if !ok {
			return a, nil
		}
		a.selected = &p
		return a, a.openForm(&p)
	case key.Matches(m, a.keys.Delete):
		p, ok := a.current()
		if !ok {
			return a, nil
		}
		a.selected = &p
		a.modal = modalConfirmDelete
		return a, nil
	case key.Matches(m, a.keys.Refresh):
		return a, a.refresh()
	case key.Matches(m, a.keys.Find):
		a.modal = modalFind
		a.findInput.SetValue("")
		return a, a.findInput.Focus()
	case key.Matches(m, a.keys.Backend):
		a.modal = modalBackendURL
		a.urlInput.SetValue(a.backendURL())
		a.urlInput.CursorEnd()
		return a, a.urlInput.Focus()
	case key.Matches(m, a.keys.History):
		if a.deps.History == nil {
			return a, a.notify(toastWarning, "History is not available")
		}
		a.view = viewHistory
		return a, a.loadHistoryCmd()
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(m)
	return a, cmd
}

func (a *App) handleHistoryKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Back):
		a.view = viewProducts
	case key.Matches(m, a.keys.Clear):
		if len(a.history) > 0 {
			a.modal = modalConfirmClear
		}
	case key.Matches(m, a.keys.Refresh):
		return a, a.loadHistoryCmd()
	}
	return a, nil
}

func (a *App) openForm(p *backend.Product) tea.Cmd {
	var cmd tea.Cmd
	a.form, cmd = newProductForm(p, a.keys)
	a.modal = modalForm
	return cmd
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalForm:
		var (
			cmd    tea.Cmd
			result formResult
		)
		a.form, cmd, result = a.form.Update(m)
		switch result {
		case formCancelled:
			a.modal = modalNone
			a.selected = nil
			return a, nil
		case formSubmitted:
			return a, a.saveCmd(a.form.product())
		}
		return a, cmd
	case modalConfirmDelete:
		switch {
		case key.Matches(m, a.keys.Confirm):
			a.modal = modalNone
			if a.selected == nil {
				return a, nil
			}
			return a, a.deleteCmd(*a.selected)
		case key.Matches(m, a.keys.Cancel):
			a.modal = modalNone
			a.selected = nil
		}
		return a, nil
	case modalConfirmClear:
		switch {
		case key.Matches(m, a.keys.Confirm):
			a.modal = modalNone
			return a, a.clearHistoryCmd()
		case key.Matches(m, a.keys.Cancel):
			a.modal = modalNone
		}
		return a, nil
	case modalFind:
		switch m.String() {
		case "esc":
			a.modal = modalNone
			a.findInput.Blur()
			return a, nil
		case "enter":
			a.modal = modalNone
			a.findInput.Blur()
			idx := bestMatch(a.products, a.findInput.Value())
			if idx < 0 {
				return a, a.notify(toastWarning, "No matching product")
			}
			a.table.SetCursor(idx)
			return a, nil
		}
		var cmd tea.Cmd
		a.findInput, cmd = a.findInput.Update(m)
		return a, cmd
	case modalBackendURL:
		switch m.String() {
		case "esc":
			a.modal = modalNone
			a.urlInput.Blur()
			return a, nil
		case "enter":
			return a, a.applyBackendURL(strings.TrimSpace(a.urlInput.Value()))
		}
		var cmd tea.Cmd
		a.urlInput, cmd = a.urlInput.Update(m)
		return a, cmd
	}
	return a, nil
}

// applyBackendURL switches the endpoint, persists it and re-fetches. An
// invalid URL keeps the prompt open.
func (a *App) applyBackendURL(u string) tea.Cmd {
	if err := config.ValidateURL(u); err != nil {
		return a.notify(toastError, "Invalid backend URL")
	}
	a.modal = modalNone
	a.urlInput.Blur()
	if u == a.backendURL() {
		return nil
	}
	a.cfg.Backend.URL = u
	if a.deps.Endpoint != nil {
		a.deps.Endpoint.SetBaseURL(u)
	}
	a.log().Info("backend url changed", "url", u)
	return tea.Batch(a.saveConfigCmd(a.cfg), a.refresh())
}

func (a *App) backendURL() string {
	if a.deps.Endpoint != nil {
		return a.deps.Endpoint.BaseURL()
	}
	return a.cfg.Backend.URL
}

func (a *App) log() service.Logger {
	if a.deps.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.deps.Logger
}

func (a *App) View() string {
	var body string
	if a.view == viewHistory {
		body = a.renderHistoryScreen()
	} else {
		body = a.renderProducts()
	}
	if t := a.renderToast(); t != "" {
		body += "\n" + t
	}
	if a.modal == modalNone {
		return body
	}
	return renderPopup(body, a.renderModal(), a.width, a.height)
}

func (a *App) renderProducts() string {
	header := titleStyle.Render("Products") + "  " + mutedStyle.Render(a.backendURL())
	if a.loading {
		header += "  " + loadingStyle.Render("loading...")
	}
	var list string
	if len(a.products) == 0 {
		list = mutedStyle.Render(emptyText)
	} else {
		list = a.table.View()
	}
	footer := footerStyle.Render(helpLine(
		a.keys.Edit, a.keys.Delete, a.keys.Refresh, a.keys.Find,
		a.keys.Backend, a.keys.History, a.keys.Quit,
	))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		buttonStyle.Render("[n] New Product"),
		"",
		list,
		"",
		footer,
	)
}

func (a *App) renderHistoryScreen() string {
	footer := footerStyle.Render(helpLine(a.keys.Back, a.keys.Refresh, a.keys.Clear, a.keys.Quit))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Activity"),
		"",
		a.renderHistory(),
		"",
		footer,
	)
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalForm:
		return a.form.View()
	case modalConfirmDelete:
		name := ""
		if a.selected != nil {
			name = a.selected.Name
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			dangerStyle.Render("Delete product"),
			"",
			fmt.Sprintf("Do you want to delete product: \"%s\"?", name),
			"",
			mutedStyle.Render(helpLine(a.keys.Confirm, a.keys.Cancel)),
		)
	case modalConfirmClear:
		return lipgloss.JoinVertical(lipgloss.Left,
			dangerStyle.Render("Clear history"),
			"",
			fmt.Sprintf("Remove all %d journal entries?", len(a.history)),
			"",
			mutedStyle.Render(helpLine(a.keys.Confirm, a.keys.Cancel)),
		)
	case modalFind:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Find product"),
			"",
			a.findInput.View(),
			"",
			mutedStyle.Render("[enter] go  [esc] cancel"),
		)
	case modalBackendURL:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Backend URL"),
			"",
			a.urlInput.View(),
			"",
			mutedStyle.Render("[enter] apply  [esc] cancel"),
		)
	}
	return ""
}
