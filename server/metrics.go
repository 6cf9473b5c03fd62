package server

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"library-lending/library"
)

// Metrics counts lending operations and exposes catalog gauges.
type Metrics struct {
	operations *prometheus.CounterVec
	handler    http.Handler
}

// NewMetrics registers the lending metrics on a fresh registry. The gauges
// read the catalog at scrape time.
func NewMetrics(mgr *library.Manager) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_operations_total",
			Help: "Lending operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(
		m.operations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "lending_items",
			Help: "Items in the catalog.",
		}, func() float64 { return float64(len(mgr.ListItems())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "lending_items_on_loan",
			Help: "Items currently lent out.",
		}, func() float64 {
			var n int
			for _, it := range mgr.ListItems() {
				if !it.Available() {
					n++
				}
			}
			return float64(n)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "lending_patrons",
			Help: "Registered patrons.",
		}, func() float64 { return float64(len(mgr.Patrons())) }),
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Observe counts one operation by its Result.
func (m *Metrics) Observe(operation string, res library.Result) {
	m.operations.WithLabelValues(operation, outcome(res)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler { return m.handler }

func outcome(res library.Result) string {
	if res.Success {
		return "ok"
	}
	err := res.Err()
	switch {
	case errors.Is(err, library.ErrInvalidItem):
		return "invalid_item"
	case errors.Is(err, library.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, library.ErrItemUnavailable):
		return "item_unavailable"
	case errors.Is(err, library.ErrInvalidPatron):
		return "invalid_patron"
	case errors.Is(err, library.ErrDuplicatePatron):
		return "duplicate_patron"
	case errors.Is(err, library.ErrPatronNotFound):
		return "patron_not_found"
	case errors.Is(err, library.ErrNotHeld):
		return "not_held"
	}
	return "error"
}
