package rowstore

import (
	"slices"

	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

// Store wraps a State and applies actions to it in place.
//
// A Store is not safe for concurrent use. It is meant to be driven from a
// single event loop, which is the only writer.
type Store struct {
	state  State
	logger *zap.Logger
}

// New returns an empty Store. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Dispatch applies a to the current state. Rejected actions still update
// the notice carried by the state.
func (s *Store) Dispatch(a Action) error {
	next, err := Reduce(s.state, a)
	s.state = next
	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("action", actionName(a)),
			zap.Error(err))
		return err
	}
	s.logger.Debug("action applied",
		zap.String("action", actionName(a)),
		zap.Int("rows", len(next.Rows)),
		zap.Int("invalid", countInvalid(next.Rows)))
	return nil
}

// State returns a snapshot of the current state. The row slice is a copy.
func (s *Store) State() State {
	st := s.state
	st.Rows = slices.Clone(st.Rows)
	return st
}

// Rows returns a copy of the current rows in presentation order.
func (s *Store) Rows() []contact.Record {
	return slices.Clone(s.state.Rows)
}

// Len returns the number of rows held.
func (s *Store) Len() int {
	return len(s.state.Rows)
}

// AllValid reports whether every held row is valid.
func (s *Store) AllValid() bool {
	return contact.AllValid(s.state.Rows)
}

func countInvalid(rows []contact.Record) int {
	n := 0
	for _, r := range rows {
		if !r.Valid() {
			n++
		}
	}
	return n
}

func actionName(a Action) string {
	switch a.(type) {
	case Load:
		return "load"
	case OpenAdd:
		return "open-add"
	case OpenEdit:
		return "open-edit"
	case CloseModal:
		return "close-modal"
	case Add:
		return "add"
	case Edit:
		return "edit"
	case EditByName:
		return "edit-by-name"
	case Delete:
		return "delete"
	case DeleteByName:
		return "delete-by-name"
	case RequestReset:
		return "request-reset"
	case Reset:
		return "reset"
	case Validate:
		return "validate"
	case SubmitStart:
		return "submit-start"
	case SubmitDone:
		return "submit-done"
	case SubmitError:
		return "submit-error"
	default:
		return "unknown"
	}
}
