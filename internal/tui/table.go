package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/jask/productdesk/internal/backend"
)

const (
	// actionsCell advertises both row actions on every product row.
	actionsCell = "✎ edit  ✗ delete"
	invalidDate = "Invalid date"
	missingDate = "-"
	emptyText   = "No products yet"
)

var baseColumns = []table.Column{
	{Title: "Name", Width: 20},
	{Title: "Description", Width: 32},
	{Title: "Creation Date", Width: 25},
	{Title: "Last Modified Date", Width: 25},
	{Title: "", Width: len([]rune(actionsCell))},
}

func newProductTable() table.Model {
	t := table.New(
		table.WithColumns(append([]table.Column(nil), baseColumns...)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(tableKeyMap()),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderForeground(colorSurface1)
	styles.Selected = styles.Selected.Bold(true).Foreground(colorBase).Background(colorFocus)
	t.SetStyles(styles)
	return t
}

// productRows decorates each product with display dates and the actions cell.
func productRows(products []backend.Product, layout string, loc *time.Location) []table.Row {
	rows := make([]table.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, table.Row{
			p.Name,
			p.Description,
			formatDate(p.DateUploaded, layout, loc),
			formatDate(p.DateEdited, layout, loc),
			actionsCell,
		})
	}
	return rows
}

// formatDate renders ts in the long display layout. Values without a zone
// offset are read as wall-clock time in loc. Unparseable values are shown as
// "Invalid date" rather than echoed raw.
func formatDate(ts backend.Timestamp, layout string, loc *time.Location) string {
	if ts.IsZero() {
		return missingDate
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := ts.TimeIn(loc)
	if err != nil {
		return invalidDate
	}
	return t.In(loc).Format(layout)
}

// fitColumns gives the description column whatever width the others leave.
func fitColumns(width int) []table.Column {
	cols := append([]table.Column(nil), baseColumns...)
	if width <= 0 {
		return cols
	}
	fixed := 0
	for i, c := range cols {
		if i != 1 {
			fixed += c.Width + 2
		}
	}
	desc := width - fixed - 2
	if desc < 12 {
		desc = 12
	}
	cols[1].Width = desc
	return cols
}
