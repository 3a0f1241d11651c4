// Package rowstore owns the ordered collection of contact rows held by the
// client and every transition that can change it.
//
// All client state lives in a single State value. Transitions are described
// by Action values and applied by Reduce, which calls contact.Reconcile on
// every row mutation, so row flags and row order can never drift from the
// field values.
package rowstore

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

// Modal is the overlay currently shown on top of the grid.
type Modal int

const (
	ModalNone Modal = iota
	ModalAdd
	ModalEdit
	ModalConfirmReset
)

func (m Modal) String() string {
	switch m {
	case ModalAdd:
		return "add"
	case ModalEdit:
		return "edit"
	case ModalConfirmReset:
		return "confirm-reset"
	default:
		return "none"
	}
}

// Notices shown to the user. Transport details never reach these strings.
const (
	NoticeBlocked       = "Please correct the errors before submitting."
	NoticeSubmitFailed  = "Failed to submit contacts. Please try again."
	NoticeSubmitted     = "Contacts submitted successfully."
	NoticeAllValid      = "All rows are valid."
	NoticeMissingFields = "Please fill in all fields."
	NoticeBusy          = "Submission in progress."
)

// ErrSubmitting rejects actions that would replace the rows while a
// submission is in flight.
var ErrSubmitting = errors.New("submission in progress")

// State is the complete client state.
type State struct {
	Rows       []contact.Record
	Modal      Modal
	Pending    contact.Record // edit buffer for ModalEdit
	File       string
	Submitting bool
	Notice     string
	Err        error
}

// Action is one of the transitions accepted by Reduce.
type Action interface {
	action()
}

type (
	// Load replaces the rows wholesale, typically after a CSV import.
	Load struct {
		Records []contact.Record
		File    string
	}
	OpenAdd  struct{}
	OpenEdit struct{ ID string }
	// CloseModal dismisses any overlay and drops the edit buffer.
	CloseModal struct{}
	Add        struct{ Candidate contact.Fields }
	Edit       struct {
		ID     string
		Values contact.Fields
	}
	// EditByName updates every row whose name equals Name. Kept for
	// callers that only know the display name; duplicate names are all
	// rewritten.
	EditByName struct {
		Name   string
		Values contact.Fields
	}
	Delete       struct{ ID string }
	DeleteByName struct{ Name string }
	RequestReset struct{}
	Reset        struct{}
	// Validate re-runs the reconcile pass and reports the outcome as a
	// notice without starting a submission.
	Validate    struct{}
	SubmitStart struct{}
	SubmitDone  struct{}
	SubmitError struct{ Err error }
)

func (Load) action()         {}
func (OpenAdd) action()      {}
func (OpenEdit) action()     {}
func (CloseModal) action()   {}
func (Add) action()          {}
func (Edit) action()         {}
func (EditByName) action()   {}
func (Delete) action()       {}
func (DeleteByName) action() {}
func (RequestReset) action() {}
func (Reset) action()        {}
func (Validate) action()     {}
func (SubmitStart) action()  {}
func (SubmitDone) action()   {}
func (SubmitError) action()  {}

// Reduce applies a to s and returns the next state. A non-nil error means
// the action was rejected; the returned state then carries the notice for
// the user but is otherwise unchanged.
func Reduce(s State, a Action) (State, error) {
	s.Err = nil

	switch a := a.(type) {
	case Load:
		if s.Submitting {
			s.Notice = NoticeBusy
			return reject(s, fmt.Errorf("load %s: %w", a.File, ErrSubmitting))
		}
		rows := make([]contact.Record, len(a.Records))
		for i, r := range a.Records {
			if r.ID == "" {
				r.ID = contact.NewID()
			}
			rows[i] = r
		}
		s.Rows = contact.Reconcile(rows)
		s.File = a.File
		s.Modal = ModalNone
		s.Pending = contact.Record{}
		s.Notice = ""
		return s, nil

	case OpenAdd:
		s.Modal = ModalAdd
		s.Pending = contact.Record{}
		return s, nil

	case OpenEdit:
		i := indexByID(s.Rows, a.ID)
		if i < 0 {
			return reject(s, fmt.Errorf("open edit %q: %w", a.ID, contact.ErrNotFound))
		}
		s.Modal = ModalEdit
		s.Pending = s.Rows[i]
		return s, nil

	case CloseModal:
		s.Modal = ModalNone
		s.Pending = contact.Record{}
		return s, nil

	case Add:
		if missing := contact.MissingRequired(a.Candidate); len(missing) > 0 {
			s.Notice = NoticeMissingFields
			return reject(s, fmt.Errorf("add contact: %w: %s",
				contact.ErrMissingRequiredField, strings.Join(missing, ", ")))
		}
		rows := append(slices.Clone(s.Rows), contact.New(a.Candidate))
		s.Rows = contact.Reconcile(rows)
		s.Modal = ModalNone
		s.Notice = ""
		return s, nil

	case Edit:
		i := indexByID(s.Rows, a.ID)
		if i < 0 {
			return reject(s, fmt.Errorf("edit %q: %w", a.ID, contact.ErrNotFound))
		}
		rows := slices.Clone(s.Rows)
		rows[i] = rows[i].With(a.Values)
		s.Rows = contact.Reconcile(rows)
		s.Modal = ModalNone
		s.Pending = contact.Record{}
		return s, nil

	case EditByName:
		rows := slices.Clone(s.Rows)
		matched := 0
		for i := range rows {
			if rows[i].Name == a.Name {
				rows[i] = rows[i].With(a.Values)
				matched++
			}
		}
		if matched == 0 {
			return reject(s, fmt.Errorf("edit %q: %w", a.Name, contact.ErrNotFound))
		}
		s.Rows = contact.Reconcile(rows)
		s.Modal = ModalNone
		s.Pending = contact.Record{}
		return s, nil

	case Delete:
		s.Rows = contact.Reconcile(slices.DeleteFunc(slices.Clone(s.Rows), func(r contact.Record) bool {
			return r.ID == a.ID
		}))
		return s, nil

	case DeleteByName:
		s.Rows = contact.Reconcile(slices.DeleteFunc(slices.Clone(s.Rows), func(r contact.Record) bool {
			return r.Name == a.Name
		}))
		return s, nil

	case RequestReset:
		s.Modal = ModalConfirmReset
		return s, nil

	case Reset:
		s.Rows = nil
		s.File = ""
		s.Modal = ModalNone
		s.Pending = contact.Record{}
		s.Notice = ""
		return s, nil

	case Validate:
		s.Rows = contact.Reconcile(s.Rows)
		if !contact.AllValid(s.Rows) {
			s.Notice = NoticeBlocked
			return s, nil
		}
		s.Notice = NoticeAllValid
		return s, nil

	case SubmitStart:
		if s.Submitting {
			return reject(s, ErrSubmitting)
		}
		s.Rows = contact.Reconcile(s.Rows)
		if !contact.AllValid(s.Rows) {
			s.Notice = NoticeBlocked
			return reject(s, contact.ErrValidationBlocked)
		}
		s.Submitting = true
		s.Notice = ""
		return s, nil

	case SubmitDone:
		s.Rows = nil
		s.File = ""
		s.Submitting = false
		s.Notice = NoticeSubmitted
		return s, nil

	case SubmitError:
		s.Submitting = false
		s.Notice = NoticeSubmitFailed
		s.Err = a.Err
		return s, nil
	}

	return s, fmt.Errorf("unknown action %T", a)
}

func reject(s State, err error) (State, error) {
	s.Err = err
	return s, err
}

func indexByID(rows []contact.Record, id string) int {
	return slices.IndexFunc(rows, func(r contact.Record) bool { return r.ID == id })
}
