package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationReport summarizes a configuration check.
type ValidationReport struct {
	Valid       bool     `json:"valid"`
	Instruments int      `json:"instruments"`
	Localities  int      `json:"localities"`
	Problems    []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the instrument registry and gazetteer",
		Long: `Validate the CUE instrument registry and the locality gazetteer
without touching the database. Cross-checks that every local plan the
gazetteer references is actually registered.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	report := ValidationReport{Valid: true}

	reg, err := opts.loadRegistry()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	report.Instruments = len(reg.All())

	gaz, err := opts.loadGazetteer()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	report.Localities = len(gaz.Localities)

	// Every local plan the gazetteer names must exist in the registry.
	for _, loc := range gaz.Localities {
		if loc.LocalPlan == "" {
			continue
		}
		if _, ok := reg.LocalPlan(loc.LocalPlan); !ok {
			report.Problems = append(report.Problems,
				fmt.Sprintf("locality %s references unregistered local plan %s", loc.LGA, loc.LocalPlan))
			report.Valid = false
		}
	}

	if err := formatter.Success(report, func(w io.Writer) {
		if report.Valid {
			fmt.Fprintf(w, "ok: %d instruments, %d localities\n", report.Instruments, report.Localities)
			return
		}
		fmt.Fprintln(w, "validation failed:")
		for _, p := range report.Problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}); err != nil {
		return err
	}

	if !report.Valid {
		return NewExitError(ExitFailure, "configuration is not consistent")
	}
	return nil
}
