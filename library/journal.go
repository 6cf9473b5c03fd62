package library

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Journal is an in-memory SQLite ledger of circulation events. It lives
// only as long as the process and answers the reporting queries the
// catalog itself does not keep indexes for.
type Journal struct {
	db *sql.DB

	recordStmt *sql.Stmt
}

// Loan is an item currently out, according to the journal.
type Loan struct {
	ItemID   uuid.UUID
	Title    string
	PatronID string
	Since    time.Time
}

// TitleCount is how many times an item has been borrowed.
type TitleCount struct {
	ItemID uuid.UUID
	Title  string
	Count  int
}

// OpenJournal creates a fresh in-memory journal.
func OpenJournal() (*Journal, error) {
	// Named shared-cache database pinned to one connection: the data lives
	// exactly as long as that connection.
	dsn := fmt.Sprintf("file:journal-%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{db: db}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the prepared statement and drops the database.
func (j *Journal) Close() error {
	if j.recordStmt != nil {
		j.recordStmt.Close()
	}
	return j.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

// applyMigrations creates the schema. Every journal starts from an empty
// in-memory database, so the schema is always applied in full and the
// version is only recorded.
func applyMigrations(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`,
		`CREATE TABLE IF NOT EXISTS circulation (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            item_id TEXT NOT NULL,
            title TEXT NOT NULL,
            patron_id TEXT NOT NULL,
            action TEXT NOT NULL CHECK (action IN ('borrowed','returned')),
            at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_circulation_item ON circulation(item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_circulation_patron ON circulation(patron_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

func (j *Journal) prepareStatements() error {
	var err error
	j.recordStmt, err = j.db.Prepare(`INSERT INTO circulation(item_id,title,patron_id,action,at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare record: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Recording and queries
// ---------------------------------------------------------------------------

// Record appends one event.
func (j *Journal) Record(ev Event) error {
	_, err := j.recordStmt.Exec(ev.ItemID.String(), ev.Title, ev.PatronID, string(ev.Action), ev.At.UTC())
	return err
}

// OutstandingLoans lists items whose latest event is a borrow, oldest loan
// first.
func (j *Journal) OutstandingLoans() ([]Loan, error) {
	rows, err := j.db.Query(`
        SELECT c.item_id, c.title, c.patron_id, c.at
        FROM circulation c
        WHERE c.action = 'borrowed'
          AND c.id = (SELECT MAX(id) FROM circulation WHERE item_id = c.item_id)
        ORDER BY c.id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.ItemID, &l.Title, &l.PatronID, &l.Since); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// LoanCounts returns borrow counts per item, most borrowed first.
func (j *Journal) LoanCounts() ([]TitleCount, error) {
	rows, err := j.db.Query(`
        SELECT item_id, title, COUNT(*) AS n
        FROM circulation
        WHERE action = 'borrowed'
        GROUP BY item_id, title
        ORDER BY n DESC, MIN(id);`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TitleCount
	for rows.Next() {
		var tc TitleCount
		if err := rows.Scan(&tc.ItemID, &tc.Title, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// Events returns the events of one patron in the order they were recorded.
func (j *Journal) Events(patronID string) ([]Event, error) {
	rows, err := j.db.Query(`SELECT item_id, title, patron_id, action, at FROM circulation WHERE patron_id = ? ORDER BY id`, patronID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev     Event
			action string
		)
		if err := rows.Scan(&ev.ItemID, &ev.Title, &ev.PatronID, &action, &ev.At); err != nil {
			return nil, err
		}
		ev.Action = Action(action)
		events = append(events, ev)
	}
	return events, rows.Err()
}
