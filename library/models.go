package library

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind tags the variant of an Item.
type Kind int

const (
	KindBook Kind = iota + 1
	KindMagazine
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindBook:
		return "book"
	case KindMagazine:
		return "magazine"
	case KindVideo:
		return "video"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the lower-case names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book":
		return KindBook, nil
	case "magazine":
		return KindMagazine, nil
	case "video":
		return KindVideo, nil
	}
	return 0, fmt.Errorf("unknown item kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Item is a lendable catalog entry. Metadata is fixed at construction;
// availability only changes through Catalog.Borrow and Catalog.ReturnItem.
type Item struct {
	ID     uuid.UUID `json:"id"`
	Kind   Kind      `json:"kind"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Year   int       `json:"year,omitempty"`

	Pages   int    `json:"pages,omitempty"`   // KindBook
	Edition string `json:"edition,omitempty"` // KindMagazine
	Minutes int    `json:"minutes,omitempty"` // KindVideo
	Subject string `json:"subject,omitempty"` // KindVideo

	available atomic.Bool
}

// Action is what happened to an item in a history record.
type Action string

const (
	ActionBorrowed Action = "borrowed"
	ActionReturned Action = "returned"
)

// HistoryRecord is one append-only entry of a patron's lending history.
type HistoryRecord struct {
	Title  string    `json:"title"`
	At     time.Time `json:"at"`
	Action Action    `json:"action"`
}

func (r HistoryRecord) String() string {
	return fmt.Sprintf("%s — %s: %s", r.At.UTC().Format(time.DateOnly), r.Action, r.Title)
}

// Patron represents a registered library user.
type Patron struct {
	Name string `json:"name"`
	ID   string `json:"id"`

	mu      sync.RWMutex // guards held and history
	held    []*Item
	history []HistoryRecord
	clock   func() time.Time
}

// Event is a circulation transition as seen by a Recorder.
type Event struct {
	ItemID   uuid.UUID
	Title    string
	PatronID string
	Action   Action
	At       time.Time
}
