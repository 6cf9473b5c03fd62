package library

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(Event) error

func (f recorderFunc) Record(ev Event) error { return f(ev) }

// duneCatalog holds the item "Dune" and the patron with id "7".
func duneCatalog(t *testing.T, opts ...Option) (*Catalog, *Item, *Patron) {
	t.Helper()
	c := NewCatalog(opts...)
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)
	require.NoError(t, c.AddItem(dune))
	p := NewPatron("Ana", "7")
	require.NoError(t, c.RegisterPatron(p))
	return c, dune, p
}

func TestBorrowScenario(t *testing.T) {
	c, dune, p := duneCatalog(t)

	require.NoError(t, c.Borrow("Dune", "7"))
	assert.False(t, c.FindItemByTitle("Dune").Available())
	assert.Contains(t, p.Held(), dune)

	err := c.Borrow("Dune", "7")
	assert.ErrorIs(t, err, ErrItemUnavailable)
	assert.Len(t, p.Held(), 1)

	require.NoError(t, c.ReturnItem("Dune", "7"))
	assert.True(t, dune.Available())
	assert.Empty(t, p.Held())

	hist := p.History()
	require.Len(t, hist, 2)
	assert.Equal(t, ActionBorrowed, hist[0].Action)
	assert.Equal(t, ActionReturned, hist[1].Action)

	// Returned items can be lent again.
	require.NoError(t, c.Borrow("Dune", "7"))
}

func TestBorrowByOtherPatronWhileLoaned(t *testing.T) {
	c, dune, first := duneCatalog(t)
	second := NewPatron("Bo", "8")
	require.NoError(t, c.RegisterPatron(second))

	require.NoError(t, c.Borrow("Dune", "7"))
	assert.ErrorIs(t, c.Borrow("dune", "8"), ErrItemUnavailable)
	assert.ErrorIs(t, c.ReturnItem("Dune", "8"), ErrNotHeld)

	assert.False(t, dune.Available())
	assert.Equal(t, []*Item{dune}, first.Held())
	assert.Empty(t, second.Held())
	assert.Empty(t, second.History())
}

func TestReturnNeverBorrowedLeavesStateUnchanged(t *testing.T) {
	c, dune, p := duneCatalog(t)

	err := c.ReturnItem("Dune", "7")
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.True(t, dune.Available())
	assert.Empty(t, p.Held())
	assert.Empty(t, p.History())
}

func TestBorrowResolutionOrder(t *testing.T) {
	c, _, _ := duneCatalog(t)

	assert.ErrorIs(t, c.Borrow("Missing", "7"), ErrItemNotFound)
	assert.ErrorIs(t, c.Borrow("Missing", "99"), ErrItemNotFound)
	assert.ErrorIs(t, c.Borrow("Dune", "99"), ErrPatronNotFound)
	assert.ErrorIs(t, c.ReturnItem("Missing", "7"), ErrItemNotFound)
	assert.ErrorIs(t, c.ReturnItem("Dune", "99"), ErrPatronNotFound)

	err := c.Borrow("  Missing ", "7")
	assert.EqualError(t, err, `item not found: "Missing"`)
}

func TestFindItemByTitle(t *testing.T) {
	c, dune, _ := duneCatalog(t)
	second := NewBook("Dune", "Someone Else", 2000, 10)
	require.NoError(t, c.AddItem(second))

	assert.Same(t, dune, c.FindItemByTitle("  dune  "))
	assert.Same(t, dune, c.FindItemByTitle("DUNE"))
	assert.Nil(t, c.FindItemByTitle("Dun"))
	assert.Nil(t, c.FindItemByTitle("   "))
}

func TestAddItemRejectsInvalid(t *testing.T) {
	c := NewCatalog()
	assert.ErrorIs(t, c.AddItem(nil), ErrInvalidItem)
	assert.ErrorIs(t, c.AddItem(NewBook("   ", "x", 1, 1)), ErrInvalidItem)
	assert.Empty(t, c.ListItems())
}

func TestListItemsIsSnapshot(t *testing.T) {
	c, dune, _ := duneCatalog(t)
	emma := NewBook("Emma", "Jane Austen", 1815, 474)
	require.NoError(t, c.AddItem(emma))

	list := c.ListItems()
	require.Equal(t, []*Item{dune, emma}, list)
	list[0] = nil

	assert.Equal(t, []*Item{dune, emma}, c.ListItems())
}

func TestSearch(t *testing.T) {
	c := NewCatalog()
	dune := NewBook("Dune", "Frank Herbert", 1965, 412)
	messiah := NewBook("Dune Messiah", "Frank Herbert", 1969, 256)
	emma := NewBook("Emma", "Jane Austen", 1815, 474)
	for _, it := range []*Item{dune, messiah, emma} {
		require.NoError(t, c.AddItem(it))
	}

	assert.Equal(t, []*Item{dune, messiah}, c.Search("DUNE"))
	assert.Equal(t, []*Item{messiah}, c.Search(" messiah"))
	assert.Empty(t, c.Search("Herbert"))
	assert.Len(t, c.Search(""), 3)
}

func TestRegisterPatron(t *testing.T) {
	c := NewCatalog()

	assert.ErrorIs(t, c.RegisterPatron(nil), ErrInvalidPatron)
	assert.ErrorIs(t, c.RegisterPatron(NewPatron("Nobody", "  ")), ErrInvalidPatron)

	p := NewPatron("María", " 101 ")
	require.NoError(t, c.RegisterPatron(p))
	assert.Equal(t, "101", p.ID)

	err := c.RegisterPatron(NewPatron("Impostor", "101"))
	assert.ErrorIs(t, err, ErrDuplicatePatron)
	assert.Len(t, c.Patrons(), 1)

	assert.Same(t, p, c.FindPatronByID("101 "))
	assert.Nil(t, c.FindPatronByID("102"))
}

func TestInspectPatron(t *testing.T) {
	c, _, _ := duneCatalog(t)
	require.NoError(t, c.Borrow("Dune", "7"))

	var held int
	ok := c.InspectPatron(" 7", func(p *Patron) { held = len(p.held) })
	assert.True(t, ok)
	assert.Equal(t, 1, held)
	assert.False(t, c.InspectPatron("nope", func(*Patron) { t.Fatal("called for unknown patron") }))
}

func TestRecorderReceivesTransitions(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var events []Event
	rec := recorderFunc(func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	c, dune, _ := duneCatalog(t, WithRecorder(rec), WithClock(func() time.Time { return at }))

	require.NoError(t, c.Borrow("Dune", "7"))
	assert.Error(t, c.Borrow("Dune", "7"))
	require.NoError(t, c.ReturnItem("Dune", "7"))

	require.Len(t, events, 2)
	assert.Equal(t, Event{ItemID: dune.ID, Title: "Dune", PatronID: "7", Action: ActionBorrowed, At: at}, events[0])
	assert.Equal(t, ActionReturned, events[1].Action)
}

func TestRecorderFailureDoesNotUndoLoan(t *testing.T) {
	rec := recorderFunc(func(Event) error { return errors.New("disk on fire") })
	c, dune, p := duneCatalog(t, WithRecorder(rec))

	require.NoError(t, c.Borrow("Dune", "7"))
	assert.False(t, dune.Available())
	assert.Len(t, p.Held(), 1)
}

func TestConcurrentBorrowHasOneWinner(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.AddItem(NewBook("Dune", "Frank Herbert", 1965, 412)))
	const patrons = 20
	for i := range patrons {
		require.NoError(t, c.RegisterPatron(NewPatron("p", fmt.Sprint(i))))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := range patrons {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.Borrow("Dune", id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(fmt.Sprint(i))
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
