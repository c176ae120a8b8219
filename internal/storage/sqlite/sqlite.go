// Package sqlite exports leads to a SQLite database through the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	business_name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	website TEXT NOT NULL,
	address TEXT NOT NULL,
	email TEXT NOT NULL,
	source TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New opens dsn and creates the leads table if needed.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create leads table: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, l lead.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	query := `
	INSERT INTO leads (
		id, business_name, phone_number, website, address, email, source, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`

	_, err := b.db.ExecContext(ctx, query,
		l.ID,
		l.BusinessName,
		l.PhoneNumber,
		l.Website,
		l.Address,
		l.Email,
		l.Source,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead %s: %w", l.ID, err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]lead.Lead, error) {
	query := `SELECT id, business_name, phone_number, website, address, email, source, created_at FROM leads WHERE 1=1`
	args := []any{}

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.HasEmail != nil {
		if *filter.HasEmail {
			query += ` AND email <> ''`
		} else {
			query += ` AND email = ''`
		}
	}

	query += ` ORDER BY seq ASC`

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := -1
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var results []lead.Lead
	for rows.Next() {
		var l lead.Lead
		err := rows.Scan(
			&l.ID, &l.BusinessName, &l.PhoneNumber, &l.Website,
			&l.Address, &l.Email, &l.Source, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
