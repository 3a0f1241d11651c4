package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/grid"
	"github.com/aanand-mishra/contact-manager/internal/rowstore"
	"github.com/aanand-mishra/contact-manager/internal/submit"
)

// errInvalidRows makes check exit non-zero.
var errInvalidRows = errors.New("invalid rows present")

func newOpenCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "open [file.csv]",
		Short: "Edit contacts in the interactive grid",
		Long: `Opens the interactive grid, optionally loading a CSV file first.

With --watch the file is re-imported whenever it changes on disk. When
stdout is not a terminal the rows are printed as a plain table instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			if watch && file == "" {
				return errors.New("--watch needs a file")
			}
			if !a.isTerminal() {
				return a.printFile(cmd, file)
			}
			return a.runGrid(cmd, file, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-import the file when it changes")
	return cmd
}

func (a *app) runGrid(cmd *cobra.Command, file string, watch bool) error {
	opts := grid.Options{
		Ctx:      cmd.Context(),
		Store:    rowstore.New(a.log),
		Importer: csvimport.New(a.log),
		Gate:     submit.New(a.client(), a.log),
		Log:      a.log,
		File:     file,
	}

	if watch {
		w, err := grid.Watch(file, 0, a.log)
		if err != nil {
			return err
		}
		defer w.Close()
		opts.Changes = w.Changes()
	}

	a.log.Info("grid started", zap.String("file", file), zap.Bool("watch", watch))
	_, err := tea.NewProgram(grid.New(opts), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

func (a *app) printFile(cmd *cobra.Command, file string) error {
	if file == "" {
		return printRows(cmd.OutOrStdout(), nil)
	}
	store, err := a.importRows(cmd, file)
	if err != nil {
		return err
	}
	return printRows(cmd.OutOrStdout(), store.Rows())
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check file.csv",
		Short: "Validate a CSV file and list invalid rows first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.importRows(cmd, args[0])
			if err != nil {
				return err
			}
			_ = store.Dispatch(rowstore.Validate{})

			rows := store.Rows()
			if err := printRows(cmd.OutOrStdout(), rows); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.State().Notice)

			if !contact.AllValid(rows) {
				return fmt.Errorf("%s: %w", args[0], errInvalidRows)
			}
			return nil
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit file.csv",
		Short: "Import a CSV file and submit every row in one request",
		Long: `Imports the file and submits all rows in a single batched request.

Nothing is sent while any row is invalid, and nothing is sent when the
file had malformed lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.importRows(cmd, args[0])
			if err != nil {
				return err
			}

			ack, err := submit.New(a.client(), a.log).Submit(cmd.Context(), store)
			if err != nil {
				if errors.Is(err, contact.ErrValidationBlocked) {
					_ = printRows(cmd.ErrOrStderr(), store.Rows())
				}
				fmt.Fprintln(cmd.ErrOrStderr(), store.State().Notice)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d contacts)\n", ack.Message, ack.Count)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export file.csv",
		Short: "Rewrite a CSV file with the canonical header, invalid rows first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.importRows(cmd, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := csvimport.Export(w, store.Rows()); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			a.log.Info("rows exported", zap.Int("rows", store.Len()), zap.String("to", out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// importRows reads path into a fresh store. Malformed lines are reported
// and turn into an error so no partial file is acted on silently.
func (a *app) importRows(cmd *cobra.Command, path string) (*rowstore.Store, error) {
	res, err := csvimport.New(a.log).ImportFile(cmd.Context(), path)
	var perr *csvimport.ParseError
	if err != nil && !errors.As(err, &perr) {
		return nil, err
	}
	for from, to := range res.Aliased {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: column %q read as %q\n", from, to)
	}
	if perr != nil {
		return nil, fmt.Errorf("%s: %w", path, perr)
	}

	store := rowstore.New(a.log)
	if err := store.Dispatch(rowstore.Load{Records: res.Records, File: path}); err != nil {
		return nil, err
	}
	return store, nil
}
