// Package response builds the JSON envelopes every handler returns.
//
// Error bodies always carry a human-readable message, plus either the
// per-field validation details or the underlying error text:
//
//	{ "message": "Validation error", "details": [{"field": "phone", "message": "..."}] }
//	{ "message": "Failed to save contacts", "error": "..." }
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope for messages and errors.
type Response struct {
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Detail describes one failed field rule.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Messages shared between the server and its clients.
const (
	MsgValidation      = "Validation error"
	MsgNotArray        = "Contacts must be an array."
	MsgSaved           = "Contacts saved successfully!"
	MsgSaveFailed      = "Failed to save contacts"
	MsgCreated         = "contact created successfully"
	MsgUpdated         = "Contact updated successfully"
	MsgDeleted         = "Contact deleted successfully"
	MsgNotFound        = "Contact not found"
	MsgInvalidID       = "Invalid contact id"
	MsgInvalidBody     = "Invalid request body"
	MsgInternal        = "Internal server error"
	MsgTooManyRequests = "Too many requests"
)

// Message wraps a plain status message.
func Message(msg string) Response {
	return Response{Message: msg}
}

// GeneralError attaches err's text to msg.
func GeneralError(msg string, err error) Response {
	return Response{Message: msg, Error: err.Error()}
}

// ValidationError turns validator failures into one Detail per field.
// Field paths drop the root struct name, so a batch entry reads
// "contacts[1].phone".
func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]Detail, 0, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		details = append(details, Detail{Field: field, Message: describe(field, e)})
	}
	return Response{Message: MsgValidation, Details: details}
}

func describe(field string, e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", field)
	case "email":
		return fmt.Sprintf("field %s must be a valid email address", field)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("field %s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("field %s must be at least %s", field, e.Param())
	case "contactphone":
		return fmt.Sprintf("field %s must look like +12 3456789012", field)
	case "mobile":
		return fmt.Sprintf("field %s must be a valid phone number", field)
	case "isodate":
		return fmt.Sprintf("field %s must be an ISO date (YYYY-MM-DD)", field)
	default:
		return fmt.Sprintf("field %s is invalid", field)
	}
}
