package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/productdesk/internal/backend"
	"github.com/jask/productdesk/internal/config"
	"github.com/jask/productdesk/internal/journal"
	"github.com/jask/productdesk/internal/service"
)

const threeProducts = `[
	{"id": 1, "product_name": "Lamp", "product_description": "desk lamp", "date_uploaded": "1986-09-04T20:30:00Z", "date_edited": "1986-09-05T08:00:00Z"},
	{"id": 2, "product_name": "Chair", "product_description": "oak", "date_uploaded": "2021-03-04T10:00:00Z"},
	{"id": 3, "product_name": "Gadget Pro", "product_description": "", "date_uploaded": "not a date"}
]`

// fakeBackend answers per method and counts what it saw.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]string
	counts    map[string]int
	bodies    map[string][]byte
}

func newFakeBackend(t *testing.T, responses map[string]string) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{responses: responses, counts: map[string]int{}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.counts[r.Method]++
		fb.bodies[r.Method] = body
		payload := fb.responses[r.Method]
		fb.mu.Unlock()
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) count(method string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.counts[method]
}

func (fb *fakeBackend) body(method string) []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[method]
}

func (fb *fakeBackend) respond(method, payload string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[method] = payload
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.UI.DateFormat = config.DefaultDateFormat
	return cfg
}

func newTestApp(t *testing.T, srv *httptest.Server, deps Deps) (*App, *backend.Client) {
	t.Helper()
	client := backend.New(srv.URL)
	deps.Products = &service.Products{Backend: client}
	if deps.Endpoint == nil {
		deps.Endpoint = client
	}
	return New(context.Background(), testConfig(), deps, time.UTC), client
}

// run executes cmd and feeds every resulting message back into the app until
// nothing is left. Only use it for commands that do not tick.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			run(t, a, c)
		}
		return
	}
	_, next := a.Update(msg)
	run(t, a, next)
}

func press(a *App, k string) tea.Cmd {
	_, cmd := a.Update(keyMsg(k))
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func loaded(t *testing.T, responses map[string]string, deps Deps) (*App, *fakeBackend) {
	t.Helper()
	fb, srv := newFakeBackend(t, responses)
	a, _ := newTestApp(t, srv, deps)
	run(t, a, a.Init())
	return a, fb
}

func TestFetchFillsTableWithActions(t *testing.T) {
	a, fb := loaded(t, map[string]string{http.MethodGet: threeProducts}, Deps{})

	require.Equal(t, 1, fb.count(http.MethodGet))
	require.False(t, a.loading)
	rows := a.table.Rows()
	require.Len(t, rows, 3)
	for _, row := range rows {
		actions := row[len(row)-1]
		require.Contains(t, actions, "edit")
		require.Contains(t, actions, "delete")
	}
	require.Equal(t, "September 4, 1986 8:30 PM", rows[0][2])
	require.Equal(t, missingDate, rows[1][3])
	require.Equal(t, invalidDate, rows[2][2])
}

func TestNonCollectionResponseShowsNoRows(t *testing.T) {
	a, _ := loaded(t, map[string]string{http.MethodGet: `{"products": []}`}, Deps{})

	require.Empty(t, a.table.Rows())
	require.Empty(t, a.toast.text)
	require.NotPanics(t, func() { _ = a.View() })
	require.Contains(t, a.View(), emptyText)
}

func TestFetchFailureKeepsPreviousRows(t *testing.T) {
	a, fb := loaded(t, map[string]string{http.MethodGet: threeProducts}, Deps{})

	fb.respond(http.MethodGet, `not json`)
	run(t, a, press(a, "r"))

	require.Equal(t, 2, fb.count(http.MethodGet))
	require.Len(t, a.table.Rows(), 3)
	require.Equal(t, toastError, a.toast.level)
	require.True(t, strings.HasPrefix(a.toast.text, "Error fetching products: "))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	for _, cancel := range []string{"n", "esc"} {
		t.Run(cancel, func(t *testing.T) {
			a, fb := loaded(t, map[string]string{http.MethodGet: threeProducts}, Deps{})

			require.Nil(t, press(a, "d"))
			require.Equal(t, modalConfirmDelete, a.modal)
			require.Contains(t, a.View(), `Do you want to delete product: "Lamp"?`)

			// unrelated keys do not confirm
			require.Nil(t, press(a, "q"))
			require.Equal(t, modalConfirmDelete, a.modal)

			require.Nil(t, press(a, cancel))
			require.Equal(t, modalNone, a.modal)
			require.Nil(t, a.selected)
			require.Zero(t, fb.count(http.MethodDelete))
			require.Equal(t, 1, fb.count(http.MethodGet))
		})
	}
}

func TestDeleteErrorLeavesListUnchanged(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet:    threeProducts,
		http.MethodDelete: `{"error": "product is locked"}`,
	}, Deps{})
	before := a.table.Rows()

	press(a, "d")
	run(t, a, press(a, "y"))

	require.Equal(t, 1, fb.count(http.MethodDelete))
	require.Equal(t, 1, fb.count(http.MethodGet))
	require.Equal(t, before, a.table.Rows())
	require.Equal(t, toastError, a.toast.level)
	require.Equal(t, "Error occurred: product is locked", a.toast.text)
}

func TestDeleteSuccessRefetchesOnce(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet:    threeProducts,
		http.MethodDelete: ``,
	}, Deps{})

	press(a, "down")
	press(a, "d")
	require.Equal(t, "Chair", a.selected.Name)
	fb.respond(http.MethodGet, `[{"id": 1, "product_name": "Lamp"}]`)
	run(t, a, press(a, "enter"))

	require.Equal(t, 1, fb.count(http.MethodDelete))
	require.Equal(t, 2, fb.count(http.MethodGet))
	require.Equal(t, "Product Deleted", a.toast.text)
	require.Equal(t, toastSuccess, a.toast.level)
	require.Len(t, a.table.Rows(), 1)
	require.Nil(t, a.selected)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fb.body(http.MethodDelete), &sent))
	require.Equal(t, float64(2), sent["id"])
	require.Equal(t, "Chair", sent["product_name"])
}

func TestCreateValidatesName(t *testing.T) {
	a, fb := loaded(t, map[string]string{http.MethodGet: `[]`}, Deps{})

	press(a, "n")
	require.Equal(t, modalForm, a.modal)
	require.False(t, a.form.editing())

	require.Nil(t, press(a, "enter"))
	require.Equal(t, "Name is required", a.form.err)
	require.Equal(t, modalForm, a.modal)
	require.Zero(t, fb.count(http.MethodPost))
}

func TestCreateSendsPostAndRefetches(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet:  `[]`,
		http.MethodPost: `{"id": 9, "product_name": "Desk"}`,
	}, Deps{})

	press(a, "n")
	typeText(a, "Desk")
	press(a, "tab")
	typeText(a, "standing")
	run(t, a, press(a, "enter"))

	require.Equal(t, 1, fb.count(http.MethodPost))
	require.Equal(t, 2, fb.count(http.MethodGet))
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, "Product Created", a.toast.text)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fb.body(http.MethodPost), &sent))
	require.Equal(t, "Desk", sent["product_name"])
	require.Equal(t, "standing", sent["product_description"])
	require.NotContains(t, sent, "id")
}

func TestEditSendsPutWithOriginalRecord(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet: threeProducts,
		http.MethodPut: `{"id": 1, "product_name": "Lamp XL"}`,
	}, Deps{})

	press(a, "e")
	require.Equal(t, modalForm, a.modal)
	require.True(t, a.form.editing())
	require.Equal(t, "Lamp", a.form.inputs[0].Value())

	typeText(a, " XL")
	run(t, a, press(a, "enter"))

	require.Equal(t, 1, fb.count(http.MethodPut))
	require.Equal(t, "Product Updated", a.toast.text)
	require.Equal(t, modalNone, a.modal)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fb.body(http.MethodPut), &sent))
	require.Equal(t, float64(1), sent["id"])
	require.Equal(t, "Lamp XL", sent["product_name"])
	require.Equal(t, "1986-09-04T20:30:00Z", sent["date_uploaded"])
}

func TestSaveErrorKeepsFormOpen(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet:  `[]`,
		http.MethodPost: `{"error": "duplicate name"}`,
	}, Deps{})

	press(a, "n")
	typeText(a, "Desk")
	run(t, a, press(a, "enter"))

	require.Equal(t, 1, fb.count(http.MethodPost))
	require.Equal(t, 1, fb.count(http.MethodGet))
	require.Equal(t, modalForm, a.modal)
	require.False(t, a.form.submitting)
	require.Equal(t, "Desk", a.form.inputs[0].Value())
	require.Equal(t, "Error occurred: duplicate name", a.toast.text)

	require.Nil(t, press(a, "esc"))
	require.Equal(t, modalNone, a.modal)
}

func TestSaveLandingAfterFormDismissedKeepsOtherModal(t *testing.T) {
	a, fb := loaded(t, map[string]string{
		http.MethodGet: threeProducts,
		http.MethodPut: `{"id": 1, "product_name": "Lamp XL"}`,
	}, Deps{})

	press(a, "e")
	typeText(a, " XL")
	save := press(a, "enter")
	require.NotNil(t, save)
	require.Nil(t, press(a, "esc"))

	press(a, "down")
	press(a, "d")
	require.Equal(t, modalConfirmDelete, a.modal)
	require.Equal(t, "Chair", a.selected.Name)

	run(t, a, save)

	require.Equal(t, 1, fb.count(http.MethodPut))
	require.Equal(t, "Product Updated", a.toast.text)
	require.Equal(t, modalConfirmDelete, a.modal)
	require.NotNil(t, a.selected)
	require.Equal(t, "Chair", a.selected.Name)
	require.Zero(t, fb.count(http.MethodDelete))
}

func TestFindMovesCursor(t *testing.T) {
	a, _ := loaded(t, map[string]string{http.MethodGet: threeProducts}, Deps{})

	press(a, "/")
	require.Equal(t, modalFind, a.modal)
	typeText(a, "gadget")
	require.Nil(t, press(a, "enter"))
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, 2, a.table.Cursor())
}

func TestBestMatch(t *testing.T) {
	products := []backend.Product{
		{Name: "Chairman"},
		{Name: "Chair"},
		{Name: "Armchair"},
		{Name: "Lamp"},
	}
	cases := []struct {
		query string
		want  int
	}{
		{"chair", 1},
		{"CHAIRM", 0},
		{"mchai", 2},
		{"lamb", 3},
		{"  ", -1},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, bestMatch(products, tc.query), tc.query)
	}
	require.Equal(t, -1, bestMatch(nil, "chair"))
}

type memHistory struct {
	entries []journal.Entry
	cleared int
}

func (h *memHistory) Recent(context.Context, int) ([]journal.Entry, error) {
	return h.entries, nil
}

func (h *memHistory) Clear(context.Context) error {
	h.cleared++
	h.entries = nil
	return nil
}

func TestHistoryViewAndClear(t *testing.T) {
	h := &memHistory{entries: []journal.Entry{
		{Action: journal.ActionDelete, ProductName: "Lamp", Outcome: journal.OutcomeError, Message: "locked", CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{Action: journal.ActionCreate, ProductName: "Chair", Outcome: journal.OutcomeOK, CreatedAt: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)},
	}}
	a, _ := loaded(t, map[string]string{http.MethodGet: `[]`}, Deps{History: h})

	run(t, a, press(a, "h"))
	require.Equal(t, viewHistory, a.view)
	require.Len(t, a.history, 2)
	view := a.View()
	require.Contains(t, view, "May 1, 2024 9:00 AM")
	require.Contains(t, view, "locked")

	press(a, "c")
	require.Equal(t, modalConfirmClear, a.modal)
	press(a, "n")
	require.Zero(t, h.cleared)

	press(a, "c")
	run(t, a, press(a, "y"))
	require.Equal(t, 1, h.cleared)
	require.Empty(t, a.history)
	require.Equal(t, "History cleared", a.toast.text)

	press(a, "esc")
	require.Equal(t, viewProducts, a.view)
}

func TestBackendURLSwitch(t *testing.T) {
	first, firstSrv := newFakeBackend(t, map[string]string{http.MethodGet: `[]`})
	second, secondSrv := newFakeBackend(t, map[string]string{http.MethodGet: threeProducts})

	var saved []config.Config
	a, client := newTestApp(t, firstSrv, Deps{SaveConfig: func(c config.Config) error {
		saved = append(saved, c)
		return nil
	}})
	run(t, a, a.Init())
	require.Equal(t, 1, first.count(http.MethodGet))

	press(a, "u")
	require.Equal(t, modalBackendURL, a.modal)
	require.Equal(t, firstSrv.URL, a.urlInput.Value())

	a.urlInput.SetValue("ftp://nowhere")
	require.Nil(t, press(a, "enter"))
	require.Equal(t, modalBackendURL, a.modal)
	require.Equal(t, "Invalid backend URL", a.toast.text)

	a.urlInput.SetValue(secondSrv.URL)
	run(t, a, press(a, "enter"))

	require.Equal(t, modalNone, a.modal)
	require.Equal(t, secondSrv.URL, client.BaseURL())
	require.Equal(t, 1, second.count(http.MethodGet))
	require.Len(t, a.table.Rows(), 3)
	require.Len(t, saved, 1)
	require.Equal(t, secondSrv.URL, saved[0].Backend.URL)
}

func TestBackendURLSaveFailureIsWarning(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{http.MethodGet: `[]`})
	a, _ := newTestApp(t, srv, Deps{SaveConfig: func(config.Config) error { return errors.New("read-only") }})

	_, cmd := a.Update(backendURLSavedMsg{err: errors.New("read-only")})
	require.Nil(t, cmd)
	require.Equal(t, toastWarning, a.toast.level)
	require.Contains(t, a.toast.text, "read-only")
}

func TestToastExpiryIgnoresStaleTimers(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{http.MethodGet: `[]`})
	a, _ := newTestApp(t, srv, Deps{})
	a.toastTTL = time.Minute

	require.NotNil(t, a.notify(toastInfo, "first"))
	require.NotNil(t, a.notify(toastSuccess, "second"))

	a.Update(toastExpiredMsg{seq: 1})
	require.Equal(t, "second", a.toast.text)
	a.Update(toastExpiredMsg{seq: 2})
	require.Empty(t, a.renderToast())
}

func TestWindowResizeFitsColumns(t *testing.T) {
	a, _ := loaded(t, map[string]string{http.MethodGet: threeProducts}, Deps{})

	a.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	cols := a.table.Columns()
	total := 0
	for _, c := range cols {
		total += c.Width + 2
	}
	require.Equal(t, 160, total)
	require.Len(t, a.table.Rows(), 3)
}

func TestFormatDate(t *testing.T) {
	var ts backend.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"1986-09-04T20:30:00Z"`), &ts))

	got := formatDate(ts, config.DefaultDateFormat, time.UTC)
	require.Equal(t, "September 4, 1986 8:30 PM", got)
	require.NotEqual(t, ts.String(), got)

	eastern, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	require.Equal(t, "September 4, 1986 4:30 PM", formatDate(ts, config.DefaultDateFormat, eastern))

	wallClock := []struct {
		raw  string
		want string
	}{
		{`"1986-09-04T20:30:00"`, "September 4, 1986 8:30 PM"},
		{`"1986-09-04 20:30:00"`, "September 4, 1986 8:30 PM"},
		{`"1986-09-04"`, "September 4, 1986 12:00 AM"},
	}
	for _, tc := range wallClock {
		var local backend.Timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &local))
		require.Equal(t, tc.want, formatDate(local, config.DefaultDateFormat, eastern), tc.raw)
	}

	require.Equal(t, missingDate, formatDate(backend.Timestamp{}, config.DefaultDateFormat, time.UTC))

	var bad backend.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
	require.Equal(t, invalidDate, formatDate(bad, config.DefaultDateFormat, time.UTC))
}
