package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aanand-mishra/contact-manager/internal/contact"
)

func printRows(w io.Writer, rows []contact.Record) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		badge := "✖"
		if r.Valid() {
			badge = "✔"
		}
		out[i] = []string{r.Name, r.Email, r.Phone, r.DateOfBirth, r.Age, badge}
	}
	return render(w, []string{"Name", "Email", "Phone", "Date of Birth", "Age", "✔/✖"}, out)
}

func render(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no contacts")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}
