// Package contact holds the client-side contact row and the pure functions
// that keep its derived state honest: validation, the validity sort and
// the combined reconcile pass.
package contact

import (
	"strings"

	"github.com/google/uuid"
)

// Record is one contact row as held by the client before submission.
//
// The field values are kept exactly as typed or imported; nothing is
// parsed until the row is mapped to the wire schema. EmailValid and
// PhoneValid are derived from Email and Phone and are only ever written
// by Validate.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dob"`
	Age         string `json:"age"`

	EmailValid bool `json:"emailValid"`
	PhoneValid bool `json:"phoneValid"`
}

// Fields is the user-editable part of a Record. Edit actions carry a
// Fields value so a caller can never smuggle in stale validity flags.
type Fields struct {
	Name        string
	Email       string
	Phone       string
	DateOfBirth string
	Age         string
}

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// New builds an unvalidated Record with a fresh ID.
func New(f Fields) Record {
	r := Record{ID: NewID()}
	return r.With(f)
}

// With returns a copy of r whose editable fields are replaced by f.
// The ID is kept; the validity flags are left for Validate to recompute.
func (r Record) With(f Fields) Record {
	r.Name = f.Name
	r.Email = f.Email
	r.Phone = f.Phone
	r.DateOfBirth = f.DateOfBirth
	r.Age = f.Age
	return r
}

// Fields returns the editable part of r.
func (r Record) Fields() Fields {
	return Fields{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
		Age:         r.Age,
	}
}

// Valid reports whether both annotations are set.
func (r Record) Valid() bool {
	return r.EmailValid && r.PhoneValid
}

// MissingRequired lists the required fields that are blank in f.
func MissingRequired(f Fields) []string {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(f.Phone) == "" {
		missing = append(missing, "phone")
	}
	return missing
}
