// Package postgres exports leads to PostgreSQL over a pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	business_name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	website TEXT NOT NULL,
	address TEXT NOT NULL,
	email TEXT NOT NULL,
	source TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New connects to dsn and creates the leads table if needed.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create leads table: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, l lead.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	query := `
	INSERT INTO leads (
		id, business_name, phone_number, website, address, email, source, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
	`

	_, err := b.pool.Exec(ctx, query,
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

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]lead.Lead, error) {
	query := `SELECT id, business_name, phone_number, website, address, email, source, created_at FROM leads WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, paramCount)
		args = append(args, filter.Source)
		paramCount++
	}
	if filter.HasEmail != nil {
		query += fmt.Sprintf(` AND (email <> '') = $%d`, paramCount)
		args = append(args, *filter.HasEmail)
		paramCount++
	}

	query += ` ORDER BY seq ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
