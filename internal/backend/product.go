package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Product is a single record as served by the products backend.
// Field names follow the backend wire format.
type Product struct {
	ID           ID        `json:"id,omitzero"`
	Name         string    `json:"product_name"`
	Description  string    `json:"product_description"`
	DateUploaded Timestamp `json:"date_uploaded,omitzero"`
	DateEdited   Timestamp `json:"date_edited,omitzero"`
}

// IsNew reports whether the product has not been assigned an id by the backend yet.
func (p Product) IsNew() bool { return p.ID.IsZero() }

// ID is a server-assigned identifier. The backend may send it as a JSON
// string or number; it is written back in the form it was received.
type ID struct {
	value   string
	numeric bool
}

// NewID returns a string-typed id.
func NewID(s string) ID { return ID{value: s} }

func (id ID) String() string { return id.value }
func (id ID) IsZero() bool   { return id.value == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ID{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID{value: s}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID{value: n.String(), numeric: true}
	}
	return nil
}

// Timestamp holds a date exactly as the backend sent it.
// Time parses it on demand for display.
type Timestamp struct {
	raw json.RawMessage
}

// NewTimestamp returns a timestamp encoded as an RFC 3339 string.
func NewTimestamp(t time.Time) Timestamp {
	b, _ := json.Marshal(t.Format(time.RFC3339Nano))
	return Timestamp{raw: b}
}

func (t Timestamp) IsZero() bool {
	return len(t.raw) == 0 || bytes.Equal(t.raw, []byte("null"))
}

// String returns the raw representation without JSON quoting.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(t.raw, &s); err == nil {
		return s
	}
	return string(t.raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return t.raw, nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Time parses the timestamp, reading values without a zone offset as UTC.
func (t Timestamp) Time() (time.Time, error) {
	return t.TimeIn(time.UTC)
}

// TimeIn parses the timestamp. Strings are tried against ISO 8601 style
// layouts, and those without a zone offset are wall-clock time in loc.
// Bare numbers are milliseconds since the Unix epoch.
func (t Timestamp) TimeIn(loc *time.Location) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("backend: empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t.raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(t.raw), 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("backend: parse timestamp %s: %w", t.raw, err)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
	s := strings.TrimSpace(t.String())
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("backend: unrecognised timestamp %q", s)
}
