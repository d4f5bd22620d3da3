package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// InstrumentStatus pairs a registered instrument with its sync state.
type InstrumentStatus struct {
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	Jurisdiction string     `json:"jurisdiction"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Clauses      int        `json:"clauses"`
}

// NewInstrumentsCommand creates the instruments listing command.
func NewInstrumentsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instruments",
		Short: "List registered instruments and their sync state",
		Long: `List every instrument in the registry together with when it was
last synced and how many current clauses it holds. Instruments that
have never been synced show a blank sync time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstruments(rootOpts, cmd)
		},
	}
}

func runInstruments(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := opts.loadRegistry()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	statuses := make([]InstrumentStatus, 0, len(reg.All()))
	for _, cfg := range reg.All() {
		status := InstrumentStatus{
			Slug:         cfg.Slug,
			Name:         cfg.Name,
			Kind:         string(cfg.Kind),
			Jurisdiction: cfg.Jurisdiction,
		}

		inst, err := st.InstrumentBySlug(ctx, cfg.Slug)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Registered but never synced.
		case err != nil:
			wrapped := WrapExitError(ExitCommandError, "read instrument state", err)
			formatter.Error(ErrCodeStore, wrapped.Error(), nil)
			return wrapped
		default:
			status.LastSyncedAt = inst.LastSyncedAt
			current, err := st.CurrentClauses(ctx, inst.ID)
			if err != nil {
				wrapped := WrapExitError(ExitCommandError, "count clauses", err)
				formatter.Error(ErrCodeStore, wrapped.Error(), nil)
				return wrapped
			}
			status.Clauses = len(current)
		}
		statuses = append(statuses, status)
	}

	return formatter.Success(statuses, func(w io.Writer) {
		for _, s := range statuses {
			synced := "never"
			if s.LastSyncedAt != nil {
				synced = s.LastSyncedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%-28s %-16s %4d clauses  synced %s\n", s.Slug, s.Kind, s.Clauses, synced)
		}
	})
}
