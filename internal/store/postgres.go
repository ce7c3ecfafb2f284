package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Schema creates the ledger tables. Amounts are NUMERIC and cross the wire
// as text so no precision is lost.
const Schema = `
CREATE TABLE IF NOT EXISTS gl_accounts (
	position   BIGSERIAL,
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	root_type  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS gl_entries (
	seq          BIGSERIAL UNIQUE,
	id           TEXT PRIMARY KEY,
	entry_date   DATE NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	reference    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS gl_entry_lines (
	entry_id    TEXT NOT NULL REFERENCES gl_entries(id),
	line_no     INT  NOT NULL,
	account_id  TEXT NOT NULL,
	amount      NUMERIC NOT NULL,
	PRIMARY KEY (entry_id, line_no)
);
`

// Postgres stores the ledger in PostgreSQL.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// ConnectPostgres opens a pool for dsn and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{db: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.db.Close()
}

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// LoadAccounts returns accounts in the order they were first saved.
func (p *Postgres) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := p.db.Query(ctx, `SELECT id, code, name, root_type FROM gl_accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		var rootType string
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &rootType); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.RootType, err = model.ParseRootType(rootType)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return out, nil
}

// SaveAccounts upserts every account in one transaction. Accounts are never
// deleted.
func (p *Postgres) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range accounts {
			batch.Queue(`
				INSERT INTO gl_accounts (id, code, name, root_type)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET code = EXCLUDED.code, name = EXCLUDED.name, root_type = EXCLUDED.root_type`,
				a.ID, a.Code, a.Name, string(a.RootType))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving accounts: %w", err)
		}
		return nil
	})
}

// LoadEntries returns every entry with its lines, in append order.
func (p *Postgres) LoadEntries(ctx context.Context) ([]model.JournalEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT e.id, e.entry_date, e.description, e.reference, l.account_id, l.amount::text
		FROM gl_entries e
		JOIN gl_entry_lines l ON l.entry_id = e.id
		ORDER BY e.seq, l.line_no`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var accountID, amount string
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Reference, &accountID, &amount); err != nil {
			return nil, fmt.Errorf("scanning entry line: %w", err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("entry %s: parsing amount %q: %w", e.ID, amount, err)
		}
		line := model.Line{AccountID: accountID, Amount: amt}

		if n := len(out); n > 0 && out[n-1].ID == e.ID {
			out[n-1].Lines = append(out[n-1].Lines, line)
			continue
		}
		e.Lines = []model.Line{line}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}

// AppendEntry inserts the entry and its lines in one transaction.
func (p *Postgres) AppendEntry(ctx context.Context, entry model.JournalEntry) error {
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO gl_entries (id, entry_date, description, reference) VALUES ($1, $2, $3, $4)`,
			entry.ID, entry.Date, entry.Description, entry.Reference); err != nil {
			return fmt.Errorf("inserting entry %s: %w", entry.ID, err)
		}

		batch := &pgx.Batch{}
		for i, l := range entry.Lines {
			batch.Queue(`
				INSERT INTO gl_entry_lines (entry_id, line_no, account_id, amount)
				VALUES ($1, $2, $3, CAST($4::text AS NUMERIC))`,
				entry.ID, i, l.AccountID, l.Amount.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting lines of %s: %w", entry.ID, err)
		}
		return nil
	})
}
