package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/contact-manager/internal/types"
)

func ptr[T any](v T) *T { return &v }

func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "want ValidationErrors, got %v", err)
	for _, fe := range verrs {
		out[fe.Field()] = fe.ActualTag()
	}
	return out
}

func TestIsMobile(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+12 3456789012", true},
		{"(555) 123-4567", true},
		{"555.123.4567", true},
		{"1234567", true},
		{"123456", false},
		{"1234567890123456", false},
		{"12345abc", false},
		{"", false},
		{"++1234567", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsMobile(tt.in), "IsMobile(%q)", tt.in)
	}
}

func TestContactInput(t *testing.T) {
	v := New()

	ok := types.ContactInput{Name: "Al", Email: "al@x.com", Phone: "555 123 4567"}
	assert.NoError(t, v.Struct(ok))

	withOptional := ok
	withOptional.DOB = ptr("1990-01-01")
	withOptional.Age = ptr(0)
	assert.NoError(t, v.Struct(withOptional))

	bad := types.ContactInput{Name: "A", Email: "nope", Phone: "12", DOB: ptr("01/02/1990"), Age: ptr(-1)}
	assert.Equal(t, map[string]string{
		"name":  "min",
		"email": "email",
		"phone": "mobile",
		"dob":   "isodate",
		"age":   "min",
	}, failedTags(t, v.Struct(bad)))
}

func TestBatchRequest(t *testing.T) {
	v := New()

	good := types.BatchContact{
		Name: "Alice", Email: "alice@x.com", Phone: "+12 3456789012",
		DOB: ptr("1990-01-01"), Age: ptr(30),
	}
	assert.NoError(t, v.Struct(types.BatchRequest{Contacts: []types.BatchContact{good}}))

	missing := types.BatchContact{Name: "Bob", Email: "bob@x.com", Phone: "555 123 4567"}
	err := v.Struct(types.BatchRequest{Contacts: []types.BatchContact{good, missing}})
	assert.Equal(t, map[string]string{
		"phone": "contactphone",
		"dob":   "required",
		"age":   "required",
	}, failedTags(t, err))

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "BatchRequest.contacts[1].phone", verrs[0].Namespace())
}

func TestISODate_AcceptsTimestamp(t *testing.T) {
	v := New()
	in := types.ContactInput{Name: "Al", Email: "al@x.com", Phone: "5551234567", DOB: ptr("1990-01-01T10:00:00Z")}
	assert.NoError(t, v.Struct(in))
}
