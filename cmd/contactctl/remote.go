package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/submit"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// contactFlags are the fields add and update send.
type contactFlags struct {
	fields contact.Fields
}

func (f *contactFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.fields.Name, "name", "", "full name")
	fl.StringVar(&f.fields.Email, "email", "", "email address")
	fl.StringVar(&f.fields.Phone, "phone", "", `phone number, "+CC NNNNNNNNNN"`)
	fl.StringVar(&f.fields.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	fl.StringVar(&f.fields.Age, "age", "", "age in years")
	for _, name := range []string{"name", "email", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// input checks the fields with the grid's rules and maps them to the wire
// schema.
func (f *contactFlags) input() (types.ContactInput, error) {
	rec := contact.Validate(contact.New(f.fields))
	if !rec.Valid() {
		var bad []string
		if !rec.EmailValid {
			bad = append(bad, "email")
		}
		if !rec.PhoneValid {
			bad = append(bad, "phone")
		}
		return types.ContactInput{}, fmt.Errorf("invalid %v: %w", bad, contact.ErrValidationBlocked)
	}
	inputs, err := submit.Prepare([]contact.Record{rec})
	if err != nil {
		return types.ContactInput{}, err
	}
	return inputs[0], nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact id %q", s)
	}
	return id, nil
}

// notFound rewrites a 404 into a message naming the id.
func notFound(id int64, err error) error {
	if errors.Is(err, contact.ErrNotFound) {
		return fmt.Errorf("contact %d: %w", id, contact.ErrNotFound)
	}
	return err
}

func newAddCmd(a *app) *cobra.Command {
	var f contactFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create one contact through the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			created, err := a.client().Add(cmd.Context(), in)
			if err != nil {
				a.log.Error("add contact", zap.Error(err))
				return err
			}
			return printContacts(cmd.OutOrStdout(), []types.Contact{created})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f contactFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a stored contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			updated, err := a.client().Update(cmd.Context(), id, in)
			if err != nil {
				a.log.Error("update contact", zap.Int64("id", id), zap.Error(err))
				return notFound(id, err)
			}
			return printContacts(cmd.OutOrStdout(), []types.Contact{updated})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client().Delete(cmd.Context(), id); err != nil {
				a.log.Error("delete contact", zap.Int64("id", id), zap.Error(err))
				return notFound(id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted contact %d\n", id)
			return nil
		},
	}
}
