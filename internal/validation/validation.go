// Package validation builds the go-playground/validator instance shared
// by the HTTP handlers, with the contact-specific rules registered.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// Custom rule tags.
const (
	TagContactPhone = "contactphone"
	TagMobile       = "mobile"
	TagISODate      = "isodate"
)

var mobileChars = regexp.MustCompile(`^\+?[0-9 ().-]+$`)

// New returns a validator with the custom rules registered. Field names
// in errors are the json names.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		TagContactPhone: contactPhone,
		TagMobile:       mobile,
		TagISODate:      isoDate,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// only fails on an empty tag or nil func
			panic(err)
		}
	}
	return v
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func contactPhone(fl validator.FieldLevel) bool {
	return contact.ValidPhone(fl.Field().String())
}

// IsMobile reports whether s looks like a phone number: 7 to 15 digits,
// an optional leading +, and space, dash, dot or parenthesis separators.
func IsMobile(s string) bool {
	if !mobileChars.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

func mobile(fl validator.FieldLevel) bool {
	return IsMobile(fl.Field().String())
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := types.ParseDate(fl.Field().String())
	return err == nil
}
