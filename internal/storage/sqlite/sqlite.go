// Package sqlite implements storage.Storage on a single SQLite file using
// database/sql and the mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aanand-mishra/contact-manager/internal/storage"
	"github.com/aanand-mishra/contact-manager/internal/types"

	// registers the "sqlite3" driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS contacts (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		name       TEXT     NOT NULL,
		email      TEXT     NOT NULL,
		phone      TEXT     NOT NULL,
		dob        TEXT,
		age        INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)
`

const selectColumns = "SELECT id, name, email, phone, dob, age, created_at, updated_at FROM contacts"

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at path and creates the contacts table
// if it does not exist yet.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return NewFromDB(db), nil
}

// NewFromDB wraps an already opened database without touching its schema.
func NewFromDB(db *sql.DB) *SQLite {
	return &SQLite{Db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreateContacts inserts all inputs inside one transaction.
func (s *SQLite) CreateContacts(ctx context.Context, inputs []types.ContactInput) ([]int64, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateContacts: begin: %w", err)
	}
	// no-op after a successful Commit
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO contacts (name, email, phone, dob, age, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return nil, fmt.Errorf("CreateContacts: prepare: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(inputs))
	for i, in := range inputs {
		args, err := s.insertArgs(in)
		if err != nil {
			return nil, fmt.Errorf("CreateContacts: contact %d: %w", i, err)
		}
		result, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, fmt.Errorf("CreateContacts: exec contact %d: %w", i, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("CreateContacts: last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateContacts: commit: %w", err)
	}
	return ids, nil
}

func (s *SQLite) CreateContact(ctx context.Context, in types.ContactInput) (types.Contact, error) {
	args, err := s.insertArgs(in)
	if err != nil {
		return types.Contact{}, fmt.Errorf("CreateContact: %w", err)
	}

	result, err := s.Db.ExecContext(ctx,
		"INSERT INTO contacts (name, email, phone, dob, age, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		args...,
	)
	if err != nil {
		return types.Contact{}, fmt.Errorf("CreateContact: exec: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return types.Contact{}, fmt.Errorf("CreateContact: last insert id: %w", err)
	}
	return s.GetContactByID(ctx, id)
}

func (s *SQLite) GetContactByID(ctx context.Context, id int64) (types.Contact, error) {
	row := s.Db.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", id)

	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Contact{}, fmt.Errorf("GetContactByID %d: %w", id, storage.ErrContactNotFound)
	}
	if err != nil {
		return types.Contact{}, fmt.Errorf("GetContactByID: scan: %w", err)
	}
	return c, nil
}

func (s *SQLite) ListContacts(ctx context.Context) ([]types.Contact, error) {
	rows, err := s.Db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListContacts: query: %w", err)
	}
	defer rows.Close()

	contacts := make([]types.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("ListContacts: scan row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListContacts: rows iteration: %w", err)
	}
	return contacts, nil
}

func (s *SQLite) UpdateContactByID(ctx context.Context, id int64, in types.ContactInput) (types.Contact, error) {
	dob, err := dobArg(in)
	if err != nil {
		return types.Contact{}, fmt.Errorf("UpdateContactByID: %w", err)
	}

	result, err := s.Db.ExecContext(ctx,
		"UPDATE contacts SET name = ?, email = ?, phone = ?, dob = ?, age = ?, updated_at = ? WHERE id = ?",
		in.Name, in.Email, in.Phone, dob, in.Age, s.now(), id,
	)
	if err != nil {
		return types.Contact{}, fmt.Errorf("UpdateContactByID: exec: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.Contact{}, fmt.Errorf("UpdateContactByID %d: %w", id, storage.ErrContactNotFound)
	}

	// re-fetch so the caller sees exactly what is stored
	return s.GetContactByID(ctx, id)
}

func (s *SQLite) DeleteContactByID(ctx context.Context, id int64) error {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteContactByID: exec: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("DeleteContactByID %d: %w", id, storage.ErrContactNotFound)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) insertArgs(in types.ContactInput) ([]any, error) {
	dob, err := dobArg(in)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return []any{in.Name, in.Email, in.Phone, dob, in.Age, now, now}, nil
}

// dobArg normalises the birth date to its ISO text form, or NULL.
func dobArg(in types.ContactInput) (*string, error) {
	d, err := in.Birthdate()
	if err != nil || d == nil {
		return nil, err
	}
	s := d.String()
	return &s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(sc scanner) (types.Contact, error) {
	var (
		c   types.Contact
		dob sql.NullString
		age sql.NullInt64
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &dob, &age, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return types.Contact{}, err
	}
	if dob.Valid {
		d, err := types.ParseDate(dob.String)
		if err != nil {
			return types.Contact{}, err
		}
		c.DOB = &d
	}
	if age.Valid {
		a := int(age.Int64)
		c.Age = &a
	}
	return c, nil
}
