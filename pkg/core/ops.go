package core

import (
	"context"
	"errors"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Queries. All of them wait for the ready barrier, then return references
// into the live model.

// Folder returns the currently bound workspace folder, or "" when unbound.
func (s *Store) Folder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// DataFilePath returns the sidecar file path for the bound folder, or ""
// when unbound. Exposed for "open data file" affordances.
func (s *Store) DataFilePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		return ""
	}
	return s.files.Path()
}

// Stacks returns all stacks in display order.
func (s *Store) Stacks(ctx context.Context) ([]*Stack, error) {
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, nil
		}
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]*Stack, len(s.stacks))
	copy(out, s.stacks)
	return out, nil
}

// ActiveStack returns the stack new markers append to, or nil when no stack
// is active.
func (s *Store) ActiveStack(ctx context.Context) (*Stack, error) {
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, nil
		}
		return nil, err
	}
	defer s.mu.Unlock()
	return s.activeStackLocked(), nil
}

// AllMarkers returns every marker across all stacks, in stack order.
func (s *Store) AllMarkers(ctx context.Context) ([]*Marker, error) {
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, nil
		}
		return nil, err
	}
	defer s.mu.Unlock()

	var out []*Marker
	for _, st := range s.stacks {
		out = append(out, st.Markers...)
	}
	return out, nil
}

// MarkersMatching returns markers whose file path (relative to the bound
// folder) matches the doublestar glob pattern.
func (s *Store) MarkersMatching(ctx context.Context, pattern string) ([]*Marker, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, nil
		}
		return nil, err
	}
	defer s.mu.Unlock()

	var out []*Marker
	for _, st := range s.stacks {
		for _, m := range st.Markers {
			rel := StoragePath(m.File, s.folder)
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// Stack operations.

// CreateStack inserts a new empty active stack at the front of the stack
// list and deactivates all others. Untitled stacks with no markers are
// dropped first so repeated "new stack" calls cannot pile up throwaways.
func (s *Store) CreateStack(ctx context.Context) (*Stack, error) {
	var st *Stack
	err := s.mutate(ctx, func() bool {
		kept := s.stacks[:0]
		for _, old := range s.stacks {
			old.IsActive = false
			if old.Title == "" && len(old.Markers) == 0 {
				continue
			}
			kept = append(kept, old)
		}
		st = &Stack{
			ID:        NewID(),
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		s.stacks = append([]*Stack{st}, kept...)
		return true
	})
	return st, err
}

// RenameStack sets a stack's title. Unknown ids are a harmless no-op.
func (s *Store) RenameStack(ctx context.Context, id, title string) error {
	return s.mutate(ctx, func() bool {
		st := s.findStackLocked(id)
		if st == nil {
			return false
		}
		st.Title = title
		return true
	})
}

// DeleteStack removes a stack and all its markers. Deleting the active stack
// leaves no stack active.
func (s *Store) DeleteStack(ctx context.Context, id string) error {
	return s.mutate(ctx, func() bool {
		for i, st := range s.stacks {
			if st.ID == id {
				s.stacks = append(s.stacks[:i], s.stacks[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ActivateStack makes the given stack the one new markers append to,
// deactivating all others. Unknown ids are a no-op; activation never
// auto-creates.
func (s *Store) ActivateStack(ctx context.Context, id string) error {
	return s.mutate(ctx, func() bool {
		target := s.findStackLocked(id)
		if target == nil {
			return false
		}
		for _, st := range s.stacks {
			st.IsActive = st == target
		}
		return true
	})
}

// MoveStack repositions src immediately after target in the stack list.
func (s *Store) MoveStack(ctx context.Context, srcID, targetID string) error {
	return s.mutate(ctx, func() bool {
		if srcID == targetID {
			return false
		}
		srcIdx, tgtIdx := -1, -1
		for i, st := range s.stacks {
			switch st.ID {
			case srcID:
				srcIdx = i
			case targetID:
				tgtIdx = i
			}
		}
		if srcIdx < 0 || tgtIdx < 0 {
			return false
		}
		src := s.stacks[srcIdx]
		s.stacks = append(s.stacks[:srcIdx], s.stacks[srcIdx+1:]...)
		if srcIdx < tgtIdx {
			tgtIdx--
		}
		s.stacks = insertStack(s.stacks, tgtIdx+1, src)
		return true
	})
}

// Marker operations.

// AddMarker appends one marker to the active stack, creating and activating
// a stack first when none is active. An untitled stack is lazily titled from
// the marker's code snippet and the creation date.
func (s *Store) AddMarker(ctx context.Context, in MarkerInput) (*Marker, error) {
	var m *Marker
	err := s.mutate(ctx, func() bool {
		m = s.appendMarkerLocked(in, time.Now())
		return true
	})
	return m, err
}

// AddMarkers appends a batch of markers atomically: one id and timestamp per
// input, a single save and a single change notification. Used for importing
// a pasted call stack.
func (s *Store) AddMarkers(ctx context.Context, ins []MarkerInput) ([]*Marker, error) {
	if len(ins) == 0 {
		return nil, nil
	}
	var out []*Marker
	err := s.mutate(ctx, func() bool {
		for _, in := range ins {
			out = append(out, s.appendMarkerLocked(in, time.Now()))
		}
		return true
	})
	return out, err
}

func (s *Store) appendMarkerLocked(in MarkerInput, now time.Time) *Marker {
	st := s.activeStackLocked()
	if st == nil {
		st = &Stack{
			ID:        NewID(),
			IsActive:  true,
			CreatedAt: now,
		}
		s.stacks = append([]*Stack{st}, s.stacks...)
	}
	if st.Title == "" {
		st.Title = defaultStackTitle(in.Code, now)
	}

	m := &Marker{
		ID:        NewID(),
		Title:     in.Title,
		Tags:      dedupeTags(in.Tags),
		File:      AbsolutePath(in.File, s.folder),
		Line:      in.Line,
		Column:    in.Column,
		Code:      in.Code,
		Icon:      in.Icon,
		IconColor: in.IconColor,
		Indent:    max(in.Indent, 0),
		CreatedAt: now,
	}
	st.Markers = append(st.Markers, m)
	return m
}

// MoveMarker repositions src immediately after the target marker, or at the
// front of the target stack when targetKind is TargetStack. Moving across
// stacks removes the marker from its source stack first.
func (s *Store) MoveMarker(ctx context.Context, srcID, targetID string, targetKind TargetKind) error {
	return s.mutate(ctx, func() bool {
		if srcID == targetID && targetKind == TargetMarker {
			return false
		}
		srcStack, srcIdx := s.locateMarkerLocked(srcID)
		if srcStack == nil {
			return false
		}
		src := srcStack.Markers[srcIdx]

		switch targetKind {
		case TargetStack:
			dst := s.findStackLocked(targetID)
			if dst == nil {
				return false
			}
			srcStack.Markers = append(srcStack.Markers[:srcIdx], srcStack.Markers[srcIdx+1:]...)
			dst.Markers = insertMarker(dst.Markers, 0, src)
			return true

		case TargetMarker:
			dstStack, dstIdx := s.locateMarkerLocked(targetID)
			if dstStack == nil {
				return false
			}
			srcStack.Markers = append(srcStack.Markers[:srcIdx], srcStack.Markers[srcIdx+1:]...)
			if dstStack == srcStack && srcIdx < dstIdx {
				// Removing src shifted the target down by one.
				dstIdx--
			}
			dstStack.Markers = insertMarker(dstStack.Markers, dstIdx+1, src)
			return true
		}
		return false
	})
}

// ReverseMarkers reverses the marker order within a stack, keeping each
// contiguous run of indented markers glued (in original relative order) to
// the nearest preceding non-indented marker. Indentation denotes a sub-block
// that must not be detached from its parent line.
func (s *Store) ReverseMarkers(ctx context.Context, stackID string) error {
	return s.mutate(ctx, func() bool {
		st := s.findStackLocked(stackID)
		if st == nil {
			return false
		}
		st.Markers = reverseBlocks(st.Markers)
		return true
	})
}

func reverseBlocks(markers []*Marker) []*Marker {
	var blocks [][]*Marker
	for _, m := range markers {
		if m.Indent == 0 || len(blocks) == 0 {
			blocks = append(blocks, []*Marker{m})
			continue
		}
		last := len(blocks) - 1
		blocks[last] = append(blocks[last], m)
	}

	out := make([]*Marker, 0, len(markers))
	for i := len(blocks) - 1; i >= 0; i-- {
		out = append(out, blocks[i]...)
	}
	return out
}

// SetMarkerTitle overrides a marker's display title. An empty title clears
// the override.
func (s *Store) SetMarkerTitle(ctx context.Context, id, title string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		m.Title = title
		return true
	})
}

// SetMarkerIcon sets the opaque icon hint.
func (s *Store) SetMarkerIcon(ctx context.Context, id, icon string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		m.Icon = icon
		return true
	})
}

// SetMarkerIconColor sets the opaque icon color hint.
func (s *Store) SetMarkerIconColor(ctx context.Context, id, color string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		m.IconColor = color
		return true
	})
}

// AddTag appends a tag to a marker. Tags form an ordered set; adding a tag
// the marker already has changes nothing.
func (s *Store) AddTag(ctx context.Context, id, tag string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		if m.HasTag(tag) {
			return false
		}
		m.Tags = append(m.Tags, tag)
		return true
	})
}

// DeleteTag removes the first occurrence of a tag from a marker.
func (s *Store) DeleteTag(ctx context.Context, id, tag string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		for i, t := range m.Tags {
			if t == tag {
				m.Tags = append(m.Tags[:i], m.Tags[i+1:]...)
				return true
			}
		}
		return false
	})
}

// IndentMarker increases a marker's nesting level by one.
func (s *Store) IndentMarker(ctx context.Context, id string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		m.Indent++
		return true
	})
}

// UnindentMarker decreases a marker's nesting level, clamped at zero.
func (s *Store) UnindentMarker(ctx context.Context, id string) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		if m.Indent == 0 {
			return false
		}
		m.Indent--
		return true
	})
}

// SetMarkerPosition updates a marker's line and column, e.g. after the
// surrounding code moved.
func (s *Store) SetMarkerPosition(ctx context.Context, id string, line, column int) error {
	return s.mutateMarker(ctx, id, func(m *Marker) bool {
		m.Line = max(line, 0)
		m.Column = max(column, 0)
		return true
	})
}

// DeleteMarker removes a marker from whichever stack contains it. A stack
// left with zero markers is intentionally kept: a stack can be meaningfully
// empty-but-named.
func (s *Store) DeleteMarker(ctx context.Context, id string) error {
	return s.mutate(ctx, func() bool {
		st, idx := s.locateMarkerLocked(id)
		if st == nil {
			return false
		}
		st.Markers = append(st.Markers[:idx], st.Markers[idx+1:]...)
		return true
	})
}

// mutateMarker locates a marker by id across all stacks and applies a
// field-level mutation. Unknown ids are a no-op (no save, no notification).
func (s *Store) mutateMarker(ctx context.Context, id string, fn func(*Marker) bool) error {
	return s.mutate(ctx, func() bool {
		st, idx := s.locateMarkerLocked(id)
		if st == nil {
			return false
		}
		return fn(st.Markers[idx])
	})
}

// Lookup helpers. Linear scans are fine here: marker counts are small.

func (s *Store) activeStackLocked() *Stack {
	for _, st := range s.stacks {
		if st.IsActive {
			return st
		}
	}
	return nil
}

func (s *Store) findStackLocked(id string) *Stack {
	for _, st := range s.stacks {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (s *Store) locateMarkerLocked(id string) (*Stack, int) {
	for _, st := range s.stacks {
		for i, m := range st.Markers {
			if m.ID == id {
				return st, i
			}
		}
	}
	return nil, -1
}

func insertMarker(markers []*Marker, idx int, m *Marker) []*Marker {
	if idx < 0 {
		idx = 0
	}
	if idx > len(markers) {
		idx = len(markers)
	}
	markers = append(markers, nil)
	copy(markers[idx+1:], markers[idx:])
	markers[idx] = m
	return markers
}

func insertStack(stacks []*Stack, idx int, st *Stack) []*Stack {
	if idx < 0 {
		idx = 0
	}
	if idx > len(stacks) {
		idx = len(stacks)
	}
	stacks = append(stacks, nil)
	copy(stacks[idx+1:], stacks[idx:])
	stacks[idx] = st
	return stacks
}

func dedupeTags(tags []string) []string {
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
