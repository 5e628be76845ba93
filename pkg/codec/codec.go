// Package codec converts the in-memory marker model to and from the
// versioned JSON sidecar document, transparently upgrading legacy document
// shapes on decode.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

// advisory is written into the "#" field of every document. Informational
// only; never trusted on decode.
const advisory = "NOT recommend to edit manually. Write carefully! Generated by code-explorer."

// parseSnippetLen bounds how much of an unparseable document is echoed back
// in a ParseError.
const parseSnippetLen = 120

// ParseError reports a structurally invalid sidecar document. The model
// store treats it as "no document" rather than a fatal error, so the fields
// exist to make the log line useful.
type ParseError struct {
	Length  int
	Snippet string
	err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid sidecar document (%d bytes, starts %q): %v", e.Length, e.Snippet, e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

func newParseError(data []byte, err error) *ParseError {
	snippet := string(data)
	if len(snippet) > parseSnippetLen {
		snippet = snippet[:parseSnippetLen]
	}
	return &ParseError{Length: len(data), Snippet: snippet, err: err}
}

// Codec implements core.Codec for the JSON sidecar format.
type Codec struct{}

// New returns the sidecar document codec.
func New() *Codec {
	return &Codec{}
}

// Encode serializes the model deterministically as pretty-printed JSON.
// In-memory absolute file paths are converted back to folder-relative form;
// the marker count is recomputed as a diagnostic.
func (c *Codec) Encode(stacks []*core.Stack, folder string) ([]byte, error) {
	doc := document{
		Comment: advisory,
		Stacks:  make([]stackRecord, 0, len(stacks)),
	}
	for _, st := range stacks {
		rec := stackRecord{
			ID:        flexID(st.ID),
			Title:     st.Title,
			IsActive:  st.IsActive,
			CreatedAt: flexTime(st.CreatedAt),
			Markers:   make([]markerRecord, 0, len(st.Markers)),
		}
		for _, m := range st.Markers {
			doc.MarkerCount++
			rec.Markers = append(rec.Markers, markerRecord{
				ID:        flexID(m.ID),
				Title:     m.Title,
				Code:      m.Code,
				Tags:      m.Tags,
				File:      core.StoragePath(m.File, folder),
				Line:      m.Line,
				Column:    m.Column,
				Icon:      m.Icon,
				IconColor: m.IconColor,
				Indent:    m.Indent,
				CreatedAt: flexTime(m.CreatedAt),
			})
		}
		doc.Stacks = append(doc.Stacks, rec)
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sidecar document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses any of the three historical document shapes. It reports
// upgraded=true when the input used a legacy flat shape, signaling the
// caller to re-save in the current one. Structurally invalid JSON yields a
// ParseError; the input is never mutated.
func (c *Codec) Decode(data []byte, folder string) ([]*core.Stack, bool, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, newParseError(data, err)
	}

	if doc.Markers != nil || doc.CurrentStackID != nil {
		return decodeFlat(doc, folder), true, nil
	}
	return decodeNested(doc, folder), false, nil
}

func decodeNested(doc document, folder string) []*core.Stack {
	stacks := make([]*core.Stack, 0, len(doc.Stacks))
	for _, rec := range doc.Stacks {
		st := toStack(rec)
		for i := range rec.Markers {
			st.Markers = append(st.Markers, toMarker(&rec.Markers[i], folder))
		}
		stacks = append(stacks, st)
	}
	return stacks
}

// decodeFlat regroups a legacy flat document: markers carrying a stackId are
// nested under their stack in original order, and isActive is derived from
// the old currentStackId pointer. A marker whose stackId matches no stack
// gets a synthesized untitled stack rather than being dropped.
func decodeFlat(doc document, folder string) []*core.Stack {
	var currentID string
	if doc.CurrentStackID != nil {
		currentID = string(*doc.CurrentStackID)
	}

	stacks := make([]*core.Stack, 0, len(doc.Stacks))
	byID := make(map[string]*core.Stack, len(doc.Stacks))
	for _, rec := range doc.Stacks {
		st := toStack(rec)
		st.IsActive = st.ID != "" && st.ID == currentID
		stacks = append(stacks, st)
		byID[st.ID] = st
	}

	for i := range doc.Markers {
		rec := &doc.Markers[i]
		st, ok := byID[string(rec.StackID)]
		if !ok {
			st = &core.Stack{
				ID:        string(rec.StackID),
				IsActive:  string(rec.StackID) == currentID,
				CreatedAt: time.Time(rec.CreatedAt),
			}
			stacks = append(stacks, st)
			byID[st.ID] = st
		}
		st.Markers = append(st.Markers, toMarker(rec, folder))
	}

	return stacks
}

func toStack(rec stackRecord) *core.Stack {
	return &core.Stack{
		ID:        string(rec.ID),
		Title:     rec.Title,
		IsActive:  rec.IsActive,
		CreatedAt: time.Time(rec.CreatedAt),
	}
}

func toMarker(rec *markerRecord, folder string) *core.Marker {
	return &core.Marker{
		ID:        string(rec.ID),
		Title:     rec.Title,
		Tags:      dedupe(rec.Tags),
		File:      core.AbsolutePath(rec.File, folder),
		Line:      max(rec.Line, 0),
		Column:    max(rec.Column, 0),
		Code:      rec.code(),
		Icon:      rec.Icon,
		IconColor: rec.IconColor,
		Indent:    max(rec.Indent, 0),
		CreatedAt: time.Time(rec.CreatedAt),
	}
}

// dedupe enforces the ordered-set property of tags on documents edited by
// hand.
func dedupe(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

var _ core.Codec = (*Codec)(nil)
