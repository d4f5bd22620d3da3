// Package cli implements the planaxis command line interface.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/config"
	"github.com/planaxis/planaxis/internal/logger"
	"github.com/planaxis/planaxis/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	DBPath    string
	Registry  string
	Gazetteer string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the planaxis CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "planaxis",
		Short: "Planaxis - planning instrument engine",
		Long: `Planaxis ingests planning instruments, keeps a versioned clause
store, and resolves sites and addresses against them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "planaxis.db", "path to the SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Registry, "registry", "registry", "directory holding the CUE instrument registry")
	cmd.PersistentFlags().StringVar(&opts.Gazetteer, "gazetteer", "registry/localities.yaml", "path to the locality gazetteer")

	cmd.AddCommand(NewInstrumentsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewClauseCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logging builds the zerolog logger for a command run.
func (o *RootOptions) logging() zerolog.Logger {
	level := "info"
	if o.Verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Pretty: o.Format == "text"})
}

// openStore opens the SQLite store at the configured path.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return st, nil
}

// loadRegistry loads the CUE instrument registry.
func (o *RootOptions) loadRegistry() (*config.Registry, error) {
	reg, err := config.LoadRegistry(o.Registry)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load registry", err)
	}
	return reg, nil
}

// loadGazetteer loads the locality gazetteer.
func (o *RootOptions) loadGazetteer() (*config.Gazetteer, error) {
	gaz, err := config.LoadGazetteer(o.Gazetteer)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load gazetteer", err)
	}
	return gaz, nil
}
