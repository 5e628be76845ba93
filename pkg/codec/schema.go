package codec

import (
	"encoding/json"
	"fmt"
	"time"
)

// The on-disk records deliberately mirror the sidecar JSON rather than the
// domain types: the document has lived through three schema generations and
// the storage shapes absorb all of them. Mapping to pkg/core happens in
// decode/encode, never by sharing structs.

// document is the top-level sidecar shape. The current generation nests
// markers under their owning stack; the legacy flat fields are only ever
// populated on decode.
type document struct {
	Comment     string        `json:"#"`
	MarkerCount int           `json:"#markerCount"`
	Stacks      []stackRecord `json:"stacks"`

	// Legacy flat schema (markers carry a stackId, a separate pointer names
	// the current stack).
	Markers        []markerRecord `json:"markers,omitempty"`
	CurrentStackID *flexID        `json:"currentStackId,omitempty"`
}

type stackRecord struct {
	ID        flexID         `json:"id"`
	Title     string         `json:"title,omitempty"`
	IsActive  bool           `json:"isActive"`
	CreatedAt flexTime       `json:"createdAt"`
	Markers   []markerRecord `json:"markers"`
}

type markerRecord struct {
	ID        flexID   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Code      string   `json:"code,omitempty"`
	Text      string   `json:"text,omitempty"` // pre-rename field, read only
	Tags      []string `json:"tags,omitempty"`
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	Icon      string   `json:"icon,omitempty"`
	IconColor string   `json:"iconColor,omitempty"`
	Indent    int      `json:"indent,omitempty"`
	CreatedAt flexTime `json:"createdAt"`
	StackID   flexID   `json:"stackId,omitempty"` // legacy flat schema only
}

// code returns the snippet, honoring the old field name.
func (m *markerRecord) code() string {
	if m.Code != "" {
		return m.Code
	}
	return m.Text
}

// flexID is a string identifier that also accepts the numeric ids the oldest
// schema generation used.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// isoLayout matches the original tool's timestamps (ISO-8601 UTC with
// millisecond precision).
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// flexTime is an ISO-8601 timestamp that also accepts the epoch numbers the
// oldest schema generation used.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("unrecognized timestamp %q: %w", s, err)
		}
		*t = flexTime(ts)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	// Date.now() style values are milliseconds; anything plausible as a
	// seconds-precision epoch stays seconds.
	if n > 1e11 {
		*t = flexTime(time.UnixMilli(int64(n)).UTC())
	} else {
		*t = flexTime(time.Unix(int64(n), 0).UTC())
	}
	return nil
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(isoLayout))
}
