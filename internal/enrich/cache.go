package enrich

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Cache stores resolved enrichments keyed by lowercased email, so
// repeated runs never re-ask the oracle about an address it has
// already answered for.
type Cache interface {
	Lookup(email string) (*Enrichment, bool, error)
	Store(email string, e *Enrichment) error
	Close() error
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS enrichments (
	email        TEXT PRIMARY KEY,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	full_name    TEXT NOT NULL,
	company_name TEXT NOT NULL,
	website      TEXT NOT NULL
);`

// SQLiteCache is a Cache persisted in a local SQLite file.
type SQLiteCache struct {
	db *sqlx.DB
}

type cachedEnrichment struct {
	Email       string `db:"email"`
	FirstName   string `db:"first_name"`
	LastName    string `db:"last_name"`
	FullName    string `db:"full_name"`
	CompanyName string `db:"company_name"`
	Website     string `db:"website"`
}

// OpenCache opens (creating if needed) the cache database at path and
// runs the schema migration.
func OpenCache(path string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open enrichment cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate enrichment cache: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Lookup returns the cached enrichment for email, if any.
func (c *SQLiteCache) Lookup(email string) (*Enrichment, bool, error) {
	var row cachedEnrichment
	err := c.db.Get(&row, `SELECT * FROM enrichments WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("enrichment cache lookup: %w", err)
	}
	return &Enrichment{
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		FullName:    row.FullName,
		CompanyName: row.CompanyName,
		Website:     row.Website,
	}, true, nil
}

// Store saves the enrichment for email, replacing any previous entry.
func (c *SQLiteCache) Store(email string, e *Enrichment) error {
	_, err := c.db.Exec(`
		INSERT INTO enrichments (email, first_name, last_name, full_name, company_name, website)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			full_name=excluded.full_name,
			company_name=excluded.company_name,
			website=excluded.website;
	`, email, e.FirstName, e.LastName, e.FullName, e.CompanyName, e.Website)
	if err != nil {
		return fmt.Errorf("enrichment cache store: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
