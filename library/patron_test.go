package library

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestPatronBorrowAndReturn(t *testing.T) {
	p := NewPatron("Ana", "7")
	p.clock = fixedClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 24*time.Hour)
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)

	require.NoError(t, p.Borrow(dune))
	assert.False(t, dune.Available())
	assert.Equal(t, []*Item{dune}, p.Held())

	require.NoError(t, p.ReturnItem(dune))
	assert.True(t, dune.Available())
	assert.Empty(t, p.Held())

	hist := p.History()
	require.Len(t, hist, 2)
	assert.Equal(t, ActionBorrowed, hist[0].Action)
	assert.Equal(t, ActionReturned, hist[1].Action)
	assert.Equal(t, "Dune", hist[1].Title)
}

func TestPatronBorrowRejectsUnavailable(t *testing.T) {
	p := NewPatron("Ana", "7")
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)
	dune.markBorrowed()

	err := p.Borrow(dune)
	assert.ErrorIs(t, err, ErrItemUnavailable)
	assert.ErrorIs(t, p.Borrow(nil), ErrItemUnavailable)
	assert.Empty(t, p.Held())
	assert.Empty(t, p.History())
}

func TestPatronReturnMatchesByIdentity(t *testing.T) {
	p := NewPatron("Ana", "7")
	first := NewBook("Dune", "Frank Herbert", 1965, 412)
	second := NewBook("Dune", "Frank Herbert", 1965, 412)
	require.NoError(t, p.Borrow(first))

	err := p.ReturnItem(second)
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.False(t, first.Available())
	assert.True(t, second.Available())
	assert.Len(t, p.History(), 1)

	assert.ErrorIs(t, p.ReturnItem(nil), ErrNotHeld)
}

func TestPatronReturnRemovesFirstOccurrenceOnly(t *testing.T) {
	p := NewPatron("Ana", "7")
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)
	other := NewBook("Emma", "Jane Austen", 1815, 474)
	p.held = []*Item{dune, other, dune}

	require.NoError(t, p.ReturnItem(dune))
	assert.Equal(t, []*Item{other, dune}, p.Held())
}

func TestHistoryView(t *testing.T) {
	p := NewPatron("Ana", "7")
	p.clock = fixedClock(time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), 2*time.Hour)
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)

	view := p.HistoryView()
	assert.Empty(t, slices.Collect(view))

	require.NoError(t, p.Borrow(dune))
	require.NoError(t, p.ReturnItem(dune))

	want := []string{
		"2024-03-01 — borrowed: Dune",
		"2024-03-02 — returned: Dune",
	}
	assert.Equal(t, want, slices.Collect(view))
	// Ranging again starts over.
	assert.Equal(t, want, slices.Collect(view))

	var first string
	for line := range view {
		first = line
		break
	}
	assert.Equal(t, want[0], first)
}

func TestHeldAndHistoryAreCopies(t *testing.T) {
	p := NewPatron("Ana", "7")
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)
	require.NoError(t, p.Borrow(dune))

	held := p.Held()
	held[0] = nil
	hist := p.History()
	hist[0].Title = "changed"

	assert.Equal(t, dune, p.Held()[0])
	assert.Equal(t, "Dune", p.History()[0].Title)
}
