package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ImportColumns is the CSV header ImportItems understands. Column order is
// free; only kind and title are mandatory.
var ImportColumns = []string{"kind", "title", "author", "year", "pages", "edition", "minutes", "subject"}

type itemRow struct {
	Kind    string `validate:"required,oneof=book magazine video"`
	Title   string `validate:"required"`
	Author  string
	Year    int `validate:"gte=0"`
	Pages   int `validate:"gte=0"`
	Edition string
	Minutes int `validate:"gte=0"`
	Subject string
}

var rowValidator = validator.New()

// ImportItems parses items from CSV. The first record must be a header.
// Errors name the offending line.
func ImportItems(r io.Reader) ([]*Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"kind", "title"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header: missing %q column", required)
		}
	}

	var items []*Item
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := rowValidator.Struct(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, describeValidation(err))
		}
		items = append(items, row.item())
	}
	return items, nil
}

func parseRow(rec []string, cols map[string]int) (itemRow, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(name string) (int, error) {
		s := field(name)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", name, s)
		}
		return n, nil
	}

	row := itemRow{
		Kind:    strings.ToLower(field("kind")),
		Title:   field("title"),
		Author:  field("author"),
		Edition: field("edition"),
		Subject: field("subject"),
	}
	var err error
	if row.Year, err = number("year"); err != nil {
		return row, err
	}
	if row.Pages, err = number("pages"); err != nil {
		return row, err
	}
	if row.Minutes, err = number("minutes"); err != nil {
		return row, err
	}
	return row, nil
}

func (r itemRow) item() *Item {
	switch r.Kind {
	case "magazine":
		return NewMagazine(r.Title, r.Author, r.Year, r.Edition)
	case "video":
		return NewVideo(r.Title, r.Author, r.Year, r.Minutes, r.Subject)
	default:
		return NewBook(r.Title, r.Author, r.Year, r.Pages)
	}
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
