package library

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
)

// Manager wraps a Catalog and its Journal. Every mutating call answers
// with a Result.
type Manager struct {
	catalog *Catalog
	journal *Journal
}

// NewManager builds an empty catalog whose transitions are journaled.
func NewManager(opts ...Option) (*Manager, error) {
	j, err := OpenJournal()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithRecorder(j)}, opts...)
	return &Manager{catalog: NewCatalog(opts...), journal: j}, nil
}

// Close drops the journal.
func (m *Manager) Close() error { return m.journal.Close() }

// ------------------ Items ------------------

func (m *Manager) AddItem(item *Item) Result { return ResultOf(m.catalog.AddItem(item)) }

// ImportFile loads items from a CSV file and adds each one. Rows whose title
// is already catalogued are skipped and reported in the joined error.
func (m *Manager) ImportFile(path string) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	items, err := ImportItems(f)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}

	var (
		added int
		errs  []error
	)
	for _, it := range items {
		if m.catalog.FindItemByTitle(it.Title) != nil {
			errs = append(errs, fmt.Errorf("skip %q: already catalogued", it.Title))
			continue
		}
		if res := m.AddItem(it); !res.Success {
			errs = append(errs, res.Err())
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}

func (m *Manager) ListItems() []*Item             { return m.catalog.ListItems() }
func (m *Manager) SearchItems(q string) []*Item   { return m.catalog.Search(q) }
func (m *Manager) FindItemByTitle(t string) *Item { return m.catalog.FindItemByTitle(t) }

// ------------------ Patrons ------------------

func (m *Manager) RegisterPatron(p *Patron) Result { return ResultOf(m.catalog.RegisterPatron(p)) }

func (m *Manager) FindPatronByID(id string) *Patron { return m.catalog.FindPatronByID(id) }
func (m *Manager) Patrons() []*Patron               { return m.catalog.Patrons() }

func (m *Manager) InspectPatron(id string, fn func(*Patron)) bool {
	return m.catalog.InspectPatron(id, fn)
}

// History returns the formatted history of a patron, or false if unknown.
// The lines are collected under the catalog lock.
func (m *Manager) History(id string) (iter.Seq[string], bool) {
	var lines []string
	found := m.catalog.InspectPatron(id, func(p *Patron) {
		lines = slices.Collect(p.HistoryView())
	})
	if !found {
		return nil, false
	}
	return slices.Values(lines), true
}

// ------------------ Circulation ------------------

func (m *Manager) Borrow(title, patronID string) Result {
	return ResultOf(m.catalog.Borrow(title, patronID))
}

func (m *Manager) ReturnItem(title, patronID string) Result {
	return ResultOf(m.catalog.ReturnItem(title, patronID))
}

// ------------------ Reports ------------------

func (m *Manager) OutstandingLoans() ([]Loan, error) { return m.journal.OutstandingLoans() }
func (m *Manager) LoanCounts() ([]TitleCount, error) { return m.journal.LoanCounts() }
// Events returns the journaled circulation events of one patron, oldest
// first.
func (m *Manager) Events(patronID string) ([]Event, error) {
	return m.journal.Events(patronID)
}
