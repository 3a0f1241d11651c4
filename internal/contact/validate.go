package contact

import (
	"regexp"
	"slices"
)

var (
	emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[A-Za-z]{2,4}$`)
	phonePattern = regexp.MustCompile(`^\+\d{2} \d{10}$`)
)

// ValidEmail reports whether s looks like local@domain.tld, where tld is
// two to four letters.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is "+" followed by two digits, a single
// space and ten digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Validate returns r with EmailValid and PhoneValid recomputed from its
// current field values.
func Validate(r Record) Record {
	r.EmailValid = ValidEmail(r.Email)
	r.PhoneValid = ValidPhone(r.Phone)
	return r
}

// SortByValidity returns a copy of rows with every invalid row ahead of
// every valid row. Relative order inside each group is preserved.
func SortByValidity(rows []Record) []Record {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Record) int {
		switch {
		case !a.Valid() && b.Valid():
			return -1
		case a.Valid() && !b.Valid():
			return 1
		default:
			return 0
		}
	})
	return out
}

// Reconcile validates every row and then applies SortByValidity. It is
// the only place the row store refreshes derived state, and it never
// mutates its input.
func Reconcile(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Validate(r)
	}
	return SortByValidity(out)
}

// AllValid reports whether every row passes both checks. An empty slice
// is trivially valid.
func AllValid(rows []Record) bool {
	for _, r := range rows {
		if !r.Valid() {
			return false
		}
	}
	return true
}
