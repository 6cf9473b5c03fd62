package library

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// NewPatron creates a patron with an empty loan list and history.
func NewPatron(name, id string) *Patron {
	return &Patron{Name: name, ID: id}
}

func (p *Patron) now() time.Time {
	if p.clock == nil {
		return time.Now()
	}
	return p.clock()
}

// Borrow lends item to the patron. The item must exist and be available.
func (p *Patron) Borrow(item *Item) error {
	if item == nil {
		return ErrItemUnavailable
	}
	if !item.Available() {
		return fmt.Errorf("%w: %q", ErrItemUnavailable, item.Title)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	item.markBorrowed()
	p.held = append(p.held, item)
	p.history = append(p.history, HistoryRecord{Title: item.Title, At: p.now(), Action: ActionBorrowed})
	return nil
}

// ReturnItem gives back an item the patron holds. Items are matched by
// identity, so a different copy with the same title is not accepted.
func (p *Patron) ReturnItem(item *Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := slices.Index(p.held, item)
	if item == nil || idx < 0 {
		title := ""
		if item != nil {
			title = item.Title
		}
		return fmt.Errorf("%w: %q", ErrNotHeld, title)
	}
	p.held = slices.Delete(p.held, idx, idx+1)
	item.markReturned()
	p.history = append(p.history, HistoryRecord{Title: item.Title, At: p.now(), Action: ActionReturned})
	return nil
}

// Held returns the items currently on loan to the patron, oldest loan first.
func (p *Patron) Held() []*Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.held)
}

// History returns a copy of the patron's history records.
func (p *Patron) History() []HistoryRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.history)
}

func (p *Patron) lastRecord() (HistoryRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return HistoryRecord{}, false
	}
	return p.history[len(p.history)-1], true
}

// HistoryView yields one formatted line per history record, oldest first.
// Each range works on the history as it stood when the range began, so the
// sequence can be ranged over any number of times.
func (p *Patron) HistoryView() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, rec := range p.History() {
			if !yield(rec.String()) {
				return
			}
		}
	}
}
