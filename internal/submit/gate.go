// Package submit turns the client's rows into one batched create request.
//
// Nothing leaves the process while any row is invalid. A submission either
// succeeds, and the rows are dropped, or fails and the rows stay exactly as
// they were. There is no retry.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/rowstore"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// Creator sends a batch of contacts to the backend and returns its
// acknowledgement message.
type Creator interface {
	CreateBatch(ctx context.Context, inputs []types.ContactInput) (string, error)
}

// Ack is a successful submission.
type Ack struct {
	Message string
	Count   int
}

// Gate sends reconciled rows to the service as one batch and records the
// outcome on a rowstore.Store.
type Gate struct {
	client Creator
	log    *zap.Logger
}

// New returns a Gate. A nil logger is replaced with a no-op one.
func New(client Creator, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{client: client, log: log}
}

// Prepare reconciles rows and maps them to the wire schema. It returns
// contact.ErrValidationBlocked when any row is invalid.
func Prepare(rows []contact.Record) ([]types.ContactInput, error) {
	rows = contact.Reconcile(rows)
	if !contact.AllValid(rows) {
		return nil, contact.ErrValidationBlocked
	}

	out := make([]types.ContactInput, len(rows))
	for i, r := range rows {
		out[i] = types.ContactInput{
			Name:  r.Name,
			Email: r.Email,
			Phone: r.Phone,
			DOB:   dob(r.DateOfBirth),
			Age:   ParseAge(r.Age),
		}
	}
	return out, nil
}

// Send posts inputs in a single request. Failures wrap either
// contact.ErrPersistenceFailure, when the server answered, or
// contact.ErrTransportFailure.
func (g *Gate) Send(ctx context.Context, inputs []types.ContactInput) (Ack, error) {
	g.log.Info("submitting contacts", zap.Int("count", len(inputs)))

	msg, err := g.client.CreateBatch(ctx, inputs)
	if err != nil {
		if !errors.Is(err, contact.ErrPersistenceFailure) && !errors.Is(err, contact.ErrTransportFailure) {
			err = fmt.Errorf("%w: %v", contact.ErrTransportFailure, err)
		}
		g.log.Error("submission failed", zap.Int("count", len(inputs)), zap.Error(err))
		return Ack{}, fmt.Errorf("submit %d contacts: %w", len(inputs), err)
	}

	g.log.Info("contacts submitted", zap.Int("count", len(inputs)), zap.String("message", msg))
	return Ack{Message: msg, Count: len(inputs)}, nil
}

// Submit runs the whole flow against store: gate, send, then clear the
// rows on success or keep them on failure.
func (g *Gate) Submit(ctx context.Context, store *rowstore.Store) (Ack, error) {
	if err := store.Dispatch(rowstore.SubmitStart{}); err != nil {
		return Ack{}, err
	}

	inputs, err := Prepare(store.Rows())
	if err != nil {
		// unreachable after a successful SubmitStart
		_ = store.Dispatch(rowstore.SubmitError{Err: err})
		return Ack{}, err
	}

	ack, err := g.Send(ctx, inputs)
	if err != nil {
		_ = store.Dispatch(rowstore.SubmitError{Err: err})
		return Ack{}, err
	}

	_ = store.Dispatch(rowstore.SubmitDone{})
	return ack, nil
}

// ParseAge reads a leading integer the way a lenient form would: leading
// blanks and an optional sign are skipped, digits are read until the first
// non-digit. It returns nil when no digits lead the text.
func ParseAge(s string) *int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}

	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return nil
	}
	return &n
}

func dob(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
