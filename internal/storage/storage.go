// Package storage defines the contract every database backend satisfies.
// Handlers depend only on this interface, so tests can pass a fake and
// main can swap sqlite for postgres with one line.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/contact-manager/internal/types"
)

// ErrContactNotFound is returned when no contact has the requested id.
var ErrContactNotFound = errors.New("contact not found")

// Storage is the database contract.
type Storage interface {
	// CreateContacts inserts every input in one transaction and returns
	// the new ids in input order. Nothing is kept when any insert fails.
	CreateContacts(ctx context.Context, inputs []types.ContactInput) ([]int64, error)

	// CreateContact inserts one contact and returns it as stored.
	CreateContact(ctx context.Context, in types.ContactInput) (types.Contact, error)

	GetContactByID(ctx context.Context, id int64) (types.Contact, error)

	// ListContacts returns every contact ordered by id. The slice is
	// empty, not nil, when there are none.
	ListContacts(ctx context.Context) ([]types.Contact, error)

	// UpdateContactByID replaces the fields of an existing contact and
	// returns the updated record.
	UpdateContactByID(ctx context.Context, id int64, in types.ContactInput) (types.Contact, error)

	DeleteContactByID(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}
