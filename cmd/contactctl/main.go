// contactctl is the terminal client for the contacts API.
//
// It imports contact rows from CSV, lets the user fix them in an
// interactive grid and submits them in one batched request.
//
//	contactctl open contacts.csv --watch
//	contactctl check contacts.csv
//	contactctl submit contacts.csv
//	contactctl list
//	contactctl export contacts.csv -o clean.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/apiclient"
	"github.com/aanand-mishra/contact-manager/internal/clientconfig"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg     *clientconfig.Config
	log     *zap.Logger
	verbose bool
	baseURL string

	// isTerminal reports whether stdout can host the grid.
	isTerminal func() bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	if a.isTerminal == nil {
		a.isTerminal = stdoutIsTerminal
	}

	root := &cobra.Command{
		Use:   "contactctl",
		Short: "Import, fix and submit contacts",
		Long: `contactctl loads contacts from a CSV file, checks every email and phone
number, and submits the rows to the contacts API in a single request.

Rows with an invalid email or phone are listed first and block submission
until they are fixed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil {
				cfg, err := clientconfig.Load()
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			if a.baseURL != "" {
				a.cfg.API.BaseURL = a.baseURL
			}
			if a.log != nil {
				return nil
			}

			log, err := newLogger(a.cfg.Log, a.verbose, cmd.Name() == "open" && a.isTerminal())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "contacts API base URL (overrides api.base_url)")

	root.AddCommand(
		newOpenCmd(a),
		newCheckCmd(a),
		newSubmitCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
	)
	return root
}

// newLogger builds the production zap logger. While the grid owns the
// terminal the log goes to the configured file instead of stderr.
func newLogger(cfg clientconfig.LogConfig, verbose, toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if toFile && cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}
	return zc.Build()
}

func (a *app) client() *apiclient.Client {
	return apiclient.New(a.cfg.API.BaseURL, a.cfg.API.Timeout)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
