package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the contacts stored by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.client().List(cmd.Context())
			if err != nil {
				a.log.Error("list contacts", zap.Error(err))
				return err
			}
			return printContacts(cmd.OutOrStdout(), contacts)
		},
	}
}

func printContacts(w io.Writer, contacts []types.Contact) error {
	rows := make([][]string, len(contacts))
	for i, c := range contacts {
		var dob, age string
		if c.DOB != nil {
			dob = c.DOB.String()
		}
		if c.Age != nil {
			age = strconv.Itoa(*c.Age)
		}
		rows[i] = []string{strconv.FormatInt(c.ID, 10), c.Name, c.Email, c.Phone, dob, age}
	}
	return render(w, []string{"ID", "Name", "Email", "Phone", "Date of Birth", "Age"}, rows)
}
