package grid

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldDob
	fieldAge
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Email", "Phone", "Date of Birth", "Age"}

var fieldPlaceholders = [fieldCount]string{
	"Jane Doe",
	"jane@example.com",
	"+12 3456789012",
	"1990-01-31",
	"34",
}

// form is the five-field editor behind the add and edit modals.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newForm() form {
	var f form
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 120
		ti.Width = 40
		f.inputs[i] = ti
	}
	return f
}

// open resets the form to values and focuses the first field.
func (f form) open(values contact.Fields) form {
	vals := [fieldCount]string{values.Name, values.Email, values.Phone, values.DateOfBirth, values.Age}
	for i := range f.inputs {
		f.inputs[i].SetValue(vals[i])
		f.inputs[i].CursorEnd()
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.inputs[0].Focus()
	return f
}

func (f form) move(delta int) form {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
	return f
}

func (f form) values() contact.Fields {
	v := func(i int) string { return f.inputs[i].Value() }
	return contact.Fields{
		Name:        v(fieldName),
		Email:       v(fieldEmail),
		Phone:       v(fieldPhone),
		DateOfBirth: v(fieldDob),
		Age:         v(fieldAge),
	}
}

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f form) view(title string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(labelStyle.Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	return b.String()
}
