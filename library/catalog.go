package library

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Recorder receives every successful borrow and return.
type Recorder interface {
	Record(Event) error
}

// Catalog owns all items and patrons and coordinates lending between them.
// A single mutex guards both collections, so a borrow's lookup and
// mutation happen in one critical section.
type Catalog struct {
	mu      sync.Mutex
	items   []*Item
	patrons []*Patron

	clock    func() time.Time
	recorder Recorder
	log      *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the time source used to stamp history records.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.clock = now }
}

// WithRecorder forwards circulation events to r.
func WithRecorder(r Recorder) Option {
	return func(c *Catalog) { c.recorder = r }
}

// WithLogger sets the logger used for recorder failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Catalog) { c.log = log }
}

// NewCatalog returns an empty catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{clock: time.Now, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ------------------ Items ------------------

// AddItem appends item to the catalog. Titles need not be unique.
func (c *Catalog) AddItem(item *Item) error {
	if item == nil || strings.TrimSpace(item.Title) == "" {
		return ErrInvalidItem
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	return nil
}

// FindItemByTitle returns the first item whose trimmed title equals title,
// ignoring case, or nil.
func (c *Catalog) FindItemByTitle(title string) *Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findItem(title)
}

func (c *Catalog) findItem(title string) *Item {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil
	}
	for _, it := range c.items {
		if strings.EqualFold(strings.TrimSpace(it.Title), t) {
			return it
		}
	}
	return nil
}

// ListItems returns the items in insertion order. The slice is a copy.
func (c *Catalog) ListItems() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Search returns items whose title contains query, ignoring case. An empty
// query matches everything.
func (c *Catalog) Search(query string) []*Item {
	q := strings.ToLower(strings.TrimSpace(query))
	c.mu.Lock()
	defer c.mu.Unlock()
	if q == "" {
		return slices.Clone(c.items)
	}
	var out []*Item
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Title), q) {
			out = append(out, it)
		}
	}
	return out
}

// ------------------ Patrons ------------------

// RegisterPatron stores p under its trimmed id. Ids are unique.
func (c *Catalog) RegisterPatron(p *Patron) error {
	if p == nil {
		return ErrInvalidPatron
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPatron)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findPatron(id) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicatePatron, id)
	}
	p.ID = id
	p.clock = c.clock
	c.patrons = append(c.patrons, p)
	return nil
}

// FindPatronByID returns the patron registered under the trimmed id, or nil.
func (c *Catalog) FindPatronByID(id string) *Patron {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findPatron(id)
}

func (c *Catalog) findPatron(id string) *Patron {
	id = strings.TrimSpace(id)
	for _, p := range c.patrons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Patrons returns the registered patrons in registration order.
func (c *Catalog) Patrons() []*Patron {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.patrons)
}

// InspectPatron runs fn with the catalog locked. It reports false when no
// patron has that id.
func (c *Catalog) InspectPatron(id string, fn func(*Patron)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.findPatron(id)
	if p == nil {
		return false
	}
	fn(p)
	return true
}

// ------------------ Circulation ------------------

// Borrow lends the item titled title to the patron with patronID.
func (c *Catalog) Borrow(title, patronID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, patron, err := c.resolve(title, patronID)
	if err != nil {
		return err
	}
	if err := patron.Borrow(item); err != nil {
		return err
	}
	c.record(patron, item)
	return nil
}

// ReturnItem takes back the item titled title from the patron with patronID.
func (c *Catalog) ReturnItem(title, patronID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, patron, err := c.resolve(title, patronID)
	if err != nil {
		return err
	}
	if err := patron.ReturnItem(item); err != nil {
		return err
	}
	c.record(patron, item)
	return nil
}

func (c *Catalog) resolve(title, patronID string) (*Item, *Patron, error) {
	item := c.findItem(title)
	if item == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrItemNotFound, strings.TrimSpace(title))
	}
	patron := c.findPatron(patronID)
	if patron == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrPatronNotFound, strings.TrimSpace(patronID))
	}
	return item, patron, nil
}

// record forwards the patron's latest history entry. A failing recorder
// never undoes the transition.
func (c *Catalog) record(p *Patron, item *Item) {
	if c.recorder == nil {
		return
	}
	last, ok := p.lastRecord()
	if !ok {
		return
	}
	ev := Event{ItemID: item.ID, Title: last.Title, PatronID: p.ID, Action: last.Action, At: last.At}
	if err := c.recorder.Record(ev); err != nil {
		c.log.Warn("record circulation event",
			"item", item.Title, "patron", p.ID, "action", last.Action, "error", err)
	}
}
