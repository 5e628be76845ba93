package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStackTitle(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("Truncates Long Snippets", func(t *testing.T) {
		got := defaultStackTitle("const answer = computeTheAnswer()", now)
		assert.Equal(t, "const answer = c 2024-03-09", got)
	})

	t.Run("Short Snippet Kept Whole", func(t *testing.T) {
		assert.Equal(t, "x := 1 2024-03-09", defaultStackTitle("x := 1", now))
	})

	t.Run("Counts Runes Not Bytes", func(t *testing.T) {
		got := defaultStackTitle("日本語のコードスニペットがここにある", now)
		assert.Equal(t, "日本語のコードスニペットがここに 2024-03-09", got)
	})
}

func TestMarkerDisplayTitle(t *testing.T) {
	m := &Marker{Code: "return nil"}
	assert.Equal(t, "return nil", m.DisplayTitle())

	m.Title = "the early exit"
	assert.Equal(t, "the early exit", m.DisplayTitle())
}

func TestReverseBlocks(t *testing.T) {
	mk := func(code string, indent int) *Marker {
		return &Marker{Code: code, Indent: indent}
	}
	codes := func(ms []*Marker) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Code
		}
		return out
	}

	t.Run("Flat List Reverses", func(t *testing.T) {
		got := reverseBlocks([]*Marker{mk("a", 0), mk("b", 0), mk("c", 0)})
		assert.Equal(t, []string{"c", "b", "a"}, codes(got))
	})

	t.Run("Indented Run Stays With Parent", func(t *testing.T) {
		got := reverseBlocks([]*Marker{mk("a", 0), mk("a1", 1), mk("a2", 2), mk("b", 0)})
		assert.Equal(t, []string{"b", "a", "a1", "a2"}, codes(got))
	})

	t.Run("Leading Indented Run Is Its Own Block", func(t *testing.T) {
		got := reverseBlocks([]*Marker{mk("x1", 1), mk("a", 0)})
		assert.Equal(t, []string{"a", "x1"}, codes(got))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, reverseBlocks(nil))
	})
}
