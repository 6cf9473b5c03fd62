package library

import (
	"errors"
	"fmt"
)

// demoItems and demoPatrons are the sample catalog shown on first start.
func demoItems() []*Item {
	return []*Item{
		NewBook("El Principito", "Antoine de Saint-Exupéry", 1943, 96),
		NewBook("Cien Años de Soledad", "Gabriel García Márquez", 1967, 417),
		NewMagazine("National Geographic - Viajes", "Varios", 2021, "Ed. 34"),
		NewVideo("Introducción a JavaScript", "MDN", 2021, 45, "Programación"),
		NewVideo("Física para todos", "CanalEducativo", 2019, 60, "Ciencia"),
	}
}

func demoPatrons() []*Patron {
	return []*Patron{
		NewPatron("María", "101"),
		NewPatron("Carlos", "102"),
		NewPatron("Lucía", "103"),
	}
}

var demoLoans = []struct{ title, patronID string }{
	{"El Principito", "101"},
	{"Introducción a JavaScript", "102"},
}

// SeedDemo loads the sample items, patrons and loans. Items whose title is
// already catalogued, registered patrons and loans of items already out are
// skipped, so seeding twice leaves the catalog unchanged.
func SeedDemo(m *Manager) error {
	var errs []error
	for _, it := range demoItems() {
		if m.FindItemByTitle(it.Title) != nil {
			continue
		}
		if res := m.AddItem(it); !res.Success {
			errs = append(errs, fmt.Errorf("seed item %q: %w", it.Title, res.Err()))
		}
	}
	for _, p := range demoPatrons() {
		if m.FindPatronByID(p.ID) != nil {
			continue
		}
		if res := m.RegisterPatron(p); !res.Success {
			errs = append(errs, fmt.Errorf("seed patron %s: %w", p.ID, res.Err()))
		}
	}
	for _, loan := range demoLoans {
		if it := m.FindItemByTitle(loan.title); it == nil || !it.Available() {
			continue
		}
		if res := m.Borrow(loan.title, loan.patronID); !res.Success {
			errs = append(errs, fmt.Errorf("seed loan %q: %w", loan.title, res.Err()))
		}
	}
	return errors.Join(errs...)
}
