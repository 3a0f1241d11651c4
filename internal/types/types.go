// Package types holds the shared data structures used across the
// application. Handlers, storage and the API client all import types
// without depending on each other.
package types

import "time"

// Contact is a persisted contact as the API returns it.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	DOB       *Date     `json:"dob,omitempty"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactInput is the body of the single add and update endpoints.
//
// Struct tags serve two purposes:
//
//  1. json:"..." controls the wire name of each field.
//  2. validate:"..." holds the go-playground/validator rules. The
//     mobile and isodate rules are registered by internal/validation.
type ContactInput struct {
	Name  string  `json:"name"  validate:"required,min=2"`
	Email string  `json:"email" validate:"required,email"`
	Phone string  `json:"phone" validate:"required,mobile"`
	DOB   *string `json:"dob,omitempty" validate:"omitempty,isodate"`
	Age   *int    `json:"age,omitempty" validate:"omitempty,min=0"`
}

// Birthdate parses DOB. A nil or blank DOB gives a nil Date.
func (in ContactInput) Birthdate() (*Date, error) {
	if in.DOB == nil || *in.DOB == "" {
		return nil, nil
	}
	d, err := ParseDate(*in.DOB)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// BatchContact is one entry of a batch create. Every field is required
// and the phone must match the fixed "+CC NNNNNNNNNN" layout.
type BatchContact struct {
	Name  string  `json:"name"  validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Phone string  `json:"phone" validate:"required,contactphone"`
	DOB   *string `json:"dob"   validate:"required,isodate"`
	Age   *int    `json:"age"   validate:"required,min=0"`
}

// Input converts a validated batch entry to the storage input shape.
func (b BatchContact) Input() ContactInput {
	return ContactInput{
		Name:  b.Name,
		Email: b.Email,
		Phone: b.Phone,
		DOB:   b.DOB,
		Age:   b.Age,
	}
}

// BatchRequest is the body of POST /api/contacts.
type BatchRequest struct {
	Contacts []BatchContact `json:"contacts" validate:"dive"`
}

// ListResponse is the body of GET /api/contact/all.
type ListResponse struct {
	Contacts []Contact `json:"contacts"`
}

// ContactResponse wraps a single contact with a status message.
type ContactResponse struct {
	Message string  `json:"message,omitempty"`
	Contact Contact `json:"contact"`
}
