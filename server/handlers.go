package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"library-lending/library"
)

const maxBodyBytes = 1 << 20

// ------------------ DTOs ------------------

type itemResponse struct {
	ID          string       `json:"id"`
	Kind        library.Kind `json:"kind"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Year        int          `json:"year,omitempty"`
	Pages       int          `json:"pages,omitempty"`
	Edition     string       `json:"edition,omitempty"`
	Minutes     int          `json:"minutes,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	Available   bool         `json:"available"`
	Description string       `json:"description"`
	Detail      string       `json:"detail"`
	Summary     string       `json:"summary"`
}

func toItemResponse(it *library.Item) itemResponse {
	return itemResponse{
		ID:          it.ID.String(),
		Kind:        it.Kind,
		Title:       it.Title,
		Author:      it.Author,
		Year:        it.Year,
		Pages:       it.Pages,
		Edition:     it.Edition,
		Minutes:     it.Minutes,
		Subject:     it.Subject,
		Available:   it.Available(),
		Description: it.Describe(),
		Detail:      it.Detail(),
		Summary:     it.Summary(),
	}
}

type patronResponse struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Held []string `json:"held"`
}

func toPatronResponse(p *library.Patron) patronResponse {
	held := make([]string, 0)
	for _, it := range p.Held() {
		held = append(held, it.Title)
	}
	return patronResponse{ID: p.ID, Name: p.Name, Held: held}
}

type addItemRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=book magazine video"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Year    int    `json:"year" validate:"gte=0"`
	Pages   int    `json:"pages" validate:"gte=0"`
	Edition string `json:"edition"`
	Minutes int    `json:"minutes" validate:"gte=0"`
	Subject string `json:"subject"`
}

// patronID accepts a JSON string or number; both become the same
// canonical string, so 101 and "101" name one patron.
type patronID string

func (p *patronID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = patronID(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return errors.New("patron id must be a string or a number")
	}
	*p = patronID(canonicalNumber(n))
	return nil
}

// canonicalNumber renders integral numbers without fraction or exponent,
// so 101, 101.0 and 1.01e2 all become "101".
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

type registerPatronRequest struct {
	Name string   `json:"name"`
	ID   patronID `json:"id"`
}

type loanRequest struct {
	Title    string   `json:"title"`
	PatronID patronID `json:"patron_id"`
}

type loanResponse struct {
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	PatronID string    `json:"patron_id"`
	Since    time.Time `json:"since"`
}

type eventResponse struct {
	ItemID string         `json:"item_id"`
	Title  string         `json:"title"`
	Action library.Action `json:"action"`
	At     time.Time      `json:"at"`
}

type countResponse struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Loans  int    `json:"loans"`
}

// ------------------ helpers ------------------

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), s.log)
		return false
	}
	return true
}

func (s *Server) validationFailed(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fail(w, http.StatusBadRequest, err.Error(), s.log)
		return
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	fail(w, http.StatusBadRequest, "validation failed: "+strings.Join(msgs, ", "), s.log)
}

// ------------------ items ------------------

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items := s.mgr.SearchItems(r.URL.Query().Get("q"))
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	ok(w, out, s.log)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if err := s.validate.Struct(req); err != nil {
		s.validationFailed(w, err)
		return
	}

	var item *library.Item
	switch req.Kind {
	case "magazine":
		item = library.NewMagazine(req.Title, req.Author, req.Year, req.Edition)
	case "video":
		item = library.NewVideo(req.Title, req.Author, req.Year, req.Minutes, req.Subject)
	default:
		item = library.NewBook(req.Title, req.Author, req.Year, req.Pages)
	}

	res := s.mgr.AddItem(item)
	s.observe("add_item", res)
	if !res.Success {
		failResult(w, res, s.log)
		return
	}
	created(w, toItemResponse(item), s.log)
}

// ------------------ patrons ------------------

func (s *Server) listPatrons(w http.ResponseWriter, _ *http.Request) {
	out := make([]patronResponse, 0)
	for _, p := range s.mgr.Patrons() {
		s.mgr.InspectPatron(p.ID, func(p *library.Patron) {
			out = append(out, toPatronResponse(p))
		})
	}
	ok(w, out, s.log)
}

func (s *Server) registerPatron(w http.ResponseWriter, r *http.Request) {
	var req registerPatronRequest
	if !s.decode(w, r, &req) {
		return
	}
	p := library.NewPatron(req.Name, string(req.ID))
	res := s.mgr.RegisterPatron(p)
	s.observe("register_patron", res)
	if !res.Success {
		failResult(w, res, s.log)
		return
	}
	created(w, patronResponse{ID: p.ID, Name: p.Name, Held: []string{}}, s.log)
}

func (s *Server) getPatron(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp patronResponse
	if !s.mgr.InspectPatron(id, func(p *library.Patron) { resp = toPatronResponse(p) }) {
		fail(w, http.StatusNotFound, fmt.Sprintf("%v: %q", library.ErrPatronNotFound, id), s.log)
		return
	}
	ok(w, resp, s.log)
}

func (s *Server) patronHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var lines []string
	if !s.mgr.InspectPatron(id, func(p *library.Patron) { lines = slices.Collect(p.HistoryView()) }) {
		fail(w, http.StatusNotFound, fmt.Sprintf("%v: %q", library.ErrPatronNotFound, id), s.log)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	ok(w, map[string][]string{"history": lines}, s.log)
}

func (s *Server) patronEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := s.mgr.FindPatronByID(id)
	if p == nil {
		fail(w, http.StatusNotFound, fmt.Sprintf("%v: %q", library.ErrPatronNotFound, id), s.log)
		return
	}
	events, err := s.mgr.Events(p.ID)
	if err != nil {
		s.log.Error("patron events", "patron", p.ID, "error", err)
		fail(w, http.StatusInternalServerError, "events unavailable", s.log)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{ItemID: ev.ItemID.String(), Title: ev.Title, Action: ev.Action, At: ev.At})
	}
	ok(w, out, s.log)
}

// ------------------ circulation ------------------

func (s *Server) borrow(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if !s.decode(w, r, &req) {
		return
	}
	res := s.mgr.Borrow(req.Title, string(req.PatronID))
	s.observe("borrow", res)
	if !res.Success {
		failResult(w, res, s.log)
		return
	}
	ok(w, toItemResponse(s.mgr.FindItemByTitle(req.Title)), s.log)
}

func (s *Server) returnItem(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if !s.decode(w, r, &req) {
		return
	}
	res := s.mgr.ReturnItem(req.Title, string(req.PatronID))
	s.observe("return", res)
	if !res.Success {
		failResult(w, res, s.log)
		return
	}
	ok(w, toItemResponse(s.mgr.FindItemByTitle(req.Title)), s.log)
}

// ------------------ reports ------------------

func (s *Server) outstanding(w http.ResponseWriter, _ *http.Request) {
	loans, err := s.mgr.OutstandingLoans()
	if err != nil {
		s.log.Error("outstanding loans", "error", err)
		fail(w, http.StatusInternalServerError, "report unavailable", s.log)
		return
	}
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, loanResponse{ItemID: l.ItemID.String(), Title: l.Title, PatronID: l.PatronID, Since: l.Since})
	}
	ok(w, out, s.log)
}

func (s *Server) popular(w http.ResponseWriter, _ *http.Request) {
	counts, err := s.mgr.LoanCounts()
	if err != nil {
		s.log.Error("loan counts", "error", err)
		fail(w, http.StatusInternalServerError, "report unavailable", s.log)
		return
	}
	out := make([]countResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, countResponse{ItemID: c.ItemID.String(), Title: c.Title, Loans: c.Count})
	}
	ok(w, out, s.log)
}
