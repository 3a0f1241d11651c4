// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/contact-manager/internal/storage"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL,
  phone      TEXT        NOT NULL,
  dob        DATE,
  age        INTEGER CHECK (age >= 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const returning = "RETURNING id, name, email, phone, dob, age, created_at, updated_at"

// Options controls how the pool is opened.
type Options struct {
	DSN       string
	ConnectTO time.Duration
	PingTO    time.Duration
}

// Postgres is the pgx-backed storage.Storage.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

// Open connects, pings and migrates. Zero timeouts default to 5s for the
// connect and 2s for the ping.
func Open(ctx context.Context, opt Options) (*Postgres, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("postgres.Open: DSN is not set")
	}
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	pool, err := pgxpool.New(cctx, opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
	defer pcancel()

	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: create table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// CreateContacts queues every insert in one batch inside a transaction.
func (p *Postgres) CreateContacts(ctx context.Context, inputs []types.ContactInput) ([]int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateContacts: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, in := range inputs {
		dob, err := dobArg(in)
		if err != nil {
			return nil, fmt.Errorf("CreateContacts: contact %d: %w", i, err)
		}
		batch.Queue(
			"INSERT INTO contacts (name, email, phone, dob, age) VALUES ($1, $2, $3, $4, $5) RETURNING id",
			in.Name, in.Email, in.Phone, dob, in.Age,
		)
	}

	results := tx.SendBatch(ctx, batch)
	ids := make([]int64, 0, len(inputs))
	for i := range inputs {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, fmt.Errorf("CreateContacts: insert contact %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("CreateContacts: batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("CreateContacts: commit: %w", err)
	}
	return ids, nil
}

func (p *Postgres) CreateContact(ctx context.Context, in types.ContactInput) (types.Contact, error) {
	dob, err := dobArg(in)
	if err != nil {
		return types.Contact{}, fmt.Errorf("CreateContact: %w", err)
	}

	row := p.pool.QueryRow(ctx,
		"INSERT INTO contacts (name, email, phone, dob, age) VALUES ($1, $2, $3, $4, $5) "+returning,
		in.Name, in.Email, in.Phone, dob, in.Age,
	)
	c, err := scanContact(row)
	if err != nil {
		return types.Contact{}, fmt.Errorf("CreateContact: %w", err)
	}
	return c, nil
}

func (p *Postgres) GetContactByID(ctx context.Context, id int64) (types.Contact, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT id, name, email, phone, dob, age, created_at, updated_at FROM contacts WHERE id = $1",
		id,
	)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Contact{}, fmt.Errorf("GetContactByID %d: %w", id, storage.ErrContactNotFound)
	}
	if err != nil {
		return types.Contact{}, fmt.Errorf("GetContactByID: %w", err)
	}
	return c, nil
}

func (p *Postgres) ListContacts(ctx context.Context) ([]types.Contact, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, name, email, phone, dob, age, created_at, updated_at FROM contacts ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("ListContacts: query: %w", err)
	}
	defer rows.Close()

	out := make([]types.Contact, 0, 16)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("ListContacts: scan row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListContacts: rows iteration: %w", err)
	}
	return out, nil
}

func (p *Postgres) UpdateContactByID(ctx context.Context, id int64, in types.ContactInput) (types.Contact, error) {
	dob, err := dobArg(in)
	if err != nil {
		return types.Contact{}, fmt.Errorf("UpdateContactByID: %w", err)
	}

	row := p.pool.QueryRow(ctx, `
UPDATE contacts
SET name = $1, email = $2, phone = $3, dob = $4, age = $5, updated_at = now()
WHERE id = $6
`+returning,
		in.Name, in.Email, in.Phone, dob, in.Age, id,
	)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Contact{}, fmt.Errorf("UpdateContactByID %d: %w", id, storage.ErrContactNotFound)
	}
	if err != nil {
		return types.Contact{}, fmt.Errorf("UpdateContactByID: %w", err)
	}
	return c, nil
}

func (p *Postgres) DeleteContactByID(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM contacts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("DeleteContactByID: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteContactByID %d: %w", id, storage.ErrContactNotFound)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func dobArg(in types.ContactInput) (*time.Time, error) {
	d, err := in.Birthdate()
	if err != nil || d == nil {
		return nil, err
	}
	return &d.Time, nil
}

func scanContact(row pgx.Row) (types.Contact, error) {
	var (
		c   types.Contact
		dob *time.Time
		age *int32
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &dob, &age, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return types.Contact{}, err
	}
	if dob != nil {
		d := types.NewDate(*dob)
		c.DOB = &d
	}
	if age != nil {
		a := int(*age)
		c.Age = &a
	}
	return c, nil
}
