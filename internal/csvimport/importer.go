// Package csvimport turns CSV text into annotated contact rows and writes
// rows back out in the canonical layout.
//
// The canonical header is:
//
//	Name,Email,Phone,Dob,Age
//
// Header tokens are matched case-sensitively. "Date of Birth" and "dob" are
// accepted as aliases for Dob; every alias used is reported in
// Result.Aliased so callers can warn about it. Columns outside the contract
// are ignored.
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

// Canonical column names.
const (
	ColName  = "Name"
	ColEmail = "Email"
	ColPhone = "Phone"
	ColDob   = "Dob"
	ColAge   = "Age"
)

// Header is the canonical header row.
var Header = []string{ColName, ColEmail, ColPhone, ColDob, ColAge}

var aliases = map[string]string{
	"Date of Birth": ColDob,
	"dob":           ColDob,
}

// ParseError lists the 1-based line numbers that were skipped because
// they could not be read as a contact row.
type ParseError struct {
	Lines []int
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = strconv.Itoa(l)
	}
	return fmt.Sprintf("csv: %d malformed line(s) skipped: %s", len(e.Lines), strings.Join(parts, ", "))
}

// Result is the outcome of an import.
type Result struct {
	Records []contact.Record
	// Aliased maps a non-canonical header token that was accepted to the
	// canonical column it was read as.
	Aliased map[string]string
}

// Importer reads contact CSV files.
type Importer struct {
	logger *zap.Logger
}

// New returns an Importer. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{logger: logger}
}

// Import reads every row of r. Each row gets a fresh ID and is run
// through contact.Validate before it is returned.
//
// Malformed lines are skipped. When any were skipped the returned error is
// a *ParseError and the Result still holds every good row. A missing header
// is reported as a plain error with an empty Result.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, errors.New("csv: missing header line")
	}
	if err != nil {
		return Result{}, fmt.Errorf("csv: read header: %w", err)
	}

	idx, aliased := mapHeader(header)
	for from, to := range aliased {
		im.logger.Warn("non-canonical csv header accepted",
			zap.String("header", from),
			zap.String("canonical", to))
	}

	res := Result{Aliased: aliased}
	var bad []int

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// An open quote runs to the end of the file; every line it
				// swallowed is reported.
				for l := pe.StartLine; l <= max(pe.Line, pe.StartLine); l++ {
					bad = append(bad, l)
				}
				continue
			}
			return res, fmt.Errorf("csv: read: %w", err)
		}

		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(header) {
			bad = append(bad, line)
			continue
		}

		res.Records = append(res.Records, contact.Validate(contact.New(contact.Fields{
			Name:        field(rec, idx, ColName),
			Email:       field(rec, idx, ColEmail),
			Phone:       field(rec, idx, ColPhone),
			DateOfBirth: field(rec, idx, ColDob),
			Age:         field(rec, idx, ColAge),
		})))
	}

	im.logger.Info("csv imported",
		zap.Int("rows", len(res.Records)),
		zap.Int("skipped", len(bad)))

	if len(bad) > 0 {
		return res, &ParseError{Lines: bad}
	}
	return res, nil
}

// ImportFile opens path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("csv: open: %w", err)
	}
	defer f.Close()

	return im.Import(ctx, f)
}

// ImportAsync runs Import on its own goroutine and hands the outcome to
// done exactly once.
func (im *Importer) ImportAsync(ctx context.Context, r io.Reader, done func(Result, error)) {
	go func() {
		done(im.Import(ctx, r))
	}()
}

func mapHeader(header []string) (map[string]int, map[string]string) {
	tokens := make([]string, len(header))
	for i, h := range header {
		tokens[i] = strings.TrimSpace(h)
	}
	if len(tokens) > 0 {
		tokens[0] = strings.TrimPrefix(tokens[0], "\ufeff")
	}

	idx := make(map[string]int, len(tokens))
	for i, h := range tokens {
		if _, seen := idx[h]; !seen && slices.Contains(Header, h) {
			idx[h] = i
		}
	}

	// aliases only fill columns the canonical header left empty
	aliased := map[string]string{}
	for i, h := range tokens {
		canon, ok := aliases[h]
		if !ok {
			continue
		}
		if _, taken := idx[canon]; !taken {
			idx[canon] = i
			aliased[h] = canon
		}
	}
	return idx, aliased
}

func field(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
