package library

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

func newItem(kind Kind, title, author string, year int) *Item {
	it := &Item{
		ID:     uuid.New(),
		Kind:   kind,
		Title:  title,
		Author: author,
		Year:   year,
	}
	it.available.Store(true)
	return it
}

// NewBook creates an available book.
func NewBook(title, author string, year, pages int) *Item {
	it := newItem(KindBook, title, author, year)
	it.Pages = pages
	return it
}

// NewMagazine creates an available magazine issue.
func NewMagazine(title, author string, year int, edition string) *Item {
	it := newItem(KindMagazine, title, author, year)
	it.Edition = edition
	return it
}

// NewVideo creates an available educational video.
func NewVideo(title, author string, year, minutes int, subject string) *Item {
	it := newItem(KindVideo, title, author, year)
	it.Minutes = minutes
	it.Subject = subject
	return it
}

// Available reports whether the item can be borrowed.
func (it *Item) Available() bool { return it.available.Load() }

func (it *Item) markBorrowed() { it.available.Store(false) }
func (it *Item) markReturned() { it.available.Store(true) }

func (it *Item) yearString() string {
	if it.Year == 0 {
		return "n.d."
	}
	return strconv.Itoa(it.Year)
}

// Describe renders "<title> — <author> (<year>)".
func (it *Item) Describe() string {
	return fmt.Sprintf("%s — %s (%s)", it.Title, it.Author, it.yearString())
}

// Detail renders the fields that only exist for the item's kind.
func (it *Item) Detail() string {
	switch it.Kind {
	case KindBook:
		return fmt.Sprintf("Pages: %d", it.Pages)
	case KindMagazine:
		return fmt.Sprintf("Edition: %s", it.Edition)
	case KindVideo:
		return fmt.Sprintf("Duration: %d min — Subject: %s", it.Minutes, it.Subject)
	}
	return ""
}

// Summary is the one-line blurb shown for each kind.
func (it *Item) Summary() string {
	switch it.Kind {
	case KindBook:
		return fmt.Sprintf("%s: book of %d pages.", it.Title, it.Pages)
	case KindMagazine:
		return fmt.Sprintf("Edition %s (%s)", it.Edition, it.yearString())
	case KindVideo:
		return fmt.Sprintf("Playing %q — subject: %s (%d min)", it.Title, it.Subject, it.Minutes)
	}
	return it.Describe()
}

// Status is "Available" or "On loan".
func (it *Item) Status() string {
	if it.Available() {
		return "Available"
	}
	return "On loan"
}
