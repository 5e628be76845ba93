// Package core implements the marker domain: code bookmarks grouped into
// ordered stacks, and the store that owns and persists them.
package core

import "time"

// Marker is a bookmark at a specific source location. The code snippet is
// captured once at creation time and never updated afterwards, so a marker
// stays meaningful even after the underlying file changes.
type Marker struct {
	ID        string
	Title     string
	Tags      []string
	File      string // absolute path while in memory
	Line      int    // zero-based
	Column    int    // zero-based
	Code      string
	Icon      string
	IconColor string
	Indent    int
	CreatedAt time.Time
}

// DisplayTitle returns the user-assigned title, falling back to the captured
// code snippet.
func (m *Marker) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Code
}

// HasTag reports whether the marker carries the given tag.
func (m *Marker) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Stack is a named, ordered collection of markers representing one reasoning
// session. Marker order is insertion order and doubles as display and
// stepping order.
type Stack struct {
	ID        string
	Title     string
	IsActive  bool
	CreatedAt time.Time
	Markers   []*Marker
}

// MarkerInput carries the caller-provided fields for a new marker.
// ID and CreatedAt are always assigned by the store.
type MarkerInput struct {
	File      string
	Line      int
	Column    int
	Code      string
	Title     string
	Tags      []string
	Icon      string
	IconColor string
	Indent    int
}

// TargetKind selects what a move operation's target id refers to.
type TargetKind string

const (
	TargetMarker TargetKind = "marker"
	TargetStack  TargetKind = "stack"
)

// defaultStackTitleLen bounds how much of a marker's code snippet is used
// when lazily titling an untitled stack.
const defaultStackTitleLen = 16

func defaultStackTitle(code string, now time.Time) string {
	runes := []rune(code)
	if len(runes) > defaultStackTitleLen {
		runes = runes[:defaultStackTitleLen]
	}
	return string(runes) + " " + now.Format("2006-01-02")
}
