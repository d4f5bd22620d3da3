package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/store"
)

// NewClauseCommand groups clause inspection commands.
func NewClauseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clause",
		Short: "Inspect clause versions and history",
	}
	cmd.AddCommand(newClauseHistoryCommand(rootOpts))
	cmd.AddCommand(newClauseAtCommand(rootOpts))
	return cmd
}

func newClauseHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <instrument-slug> <clause-key>",
		Short:         "Show every version of a clause, oldest first",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClauseHistory(rootOpts, cmd, args[0], args[1])
		},
	}
}

func runClauseHistory(opts *RootOptions, cmd *cobra.Command, slug, key string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	inst, err := instrumentOrFail(ctx, st, slug, formatter)
	if err != nil {
		return err
	}

	history, err := st.ClauseHistory(ctx, inst.ID, key)
	if err != nil {
		wrapped := WrapExitError(ExitCommandError, "load history", err)
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return wrapped
	}
	if len(history) == 0 {
		wrapped := NewExitError(ExitFailure, fmt.Sprintf("no clause %s in %s", key, slug))
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return wrapped
	}

	return formatter.Success(history, func(w io.Writer) {
		for _, c := range history {
			fmt.Fprintf(w, "v%d  %s  %s\n", c.Version, clauseStatus(c), effectiveRange(c))
		}
	})
}

func newClauseAtCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:           "at <instrument-slug> <clause-key>",
		Short:         "Show the clause version in force at a point in time",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClauseAt(rootOpts, cmd, args[0], args[1], at)
		},
	}
	cmd.Flags().StringVar(&at, "date", "", "point in time, RFC 3339 or YYYY-MM-DD (default now)")
	return cmd
}

func runClauseAt(opts *RootOptions, cmd *cobra.Command, slug, key, at string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	when := time.Now().UTC()
	if at != "" {
		parsed, err := parseWhen(at)
		if err != nil {
			wrapped := WrapExitError(ExitCommandError, "parse --date", err)
			formatter.Error(ErrCodeConfig, wrapped.Error(), nil)
			return wrapped
		}
		when = parsed
	}

	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	inst, err := instrumentOrFail(ctx, st, slug, formatter)
	if err != nil {
		return err
	}

	clause, err := st.ClauseAt(ctx, inst.ID, key, when)
	if errors.Is(err, sql.ErrNoRows) {
		wrapped := NewExitError(ExitFailure, fmt.Sprintf("no version of %s was in force at %s", key, when.Format(time.RFC3339)))
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return wrapped
	}
	if err != nil {
		wrapped := WrapExitError(ExitCommandError, "load clause", err)
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return wrapped
	}

	return formatter.Success(clause, func(w io.Writer) {
		fmt.Fprintf(w, "%s v%d  %s\n", clause.ClauseKey, clause.Version, clause.Title)
		fmt.Fprintln(w, clause.BodyText)
	})
}

// instrumentOrFail resolves a slug to its stored instrument row.
func instrumentOrFail(ctx context.Context, st *store.Store, slug string, formatter *OutputFormatter) (ir.Instrument, error) {
	inst, err := st.InstrumentBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		wrapped := NewExitError(ExitFailure, fmt.Sprintf("instrument %s has never been synced", slug))
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return ir.Instrument{}, wrapped
	}
	if err != nil {
		wrapped := WrapExitError(ExitCommandError, "load instrument", err)
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return ir.Instrument{}, wrapped
	}
	return inst, nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

func clauseStatus(c ir.Clause) string {
	if c.IsCurrent {
		return "current"
	}
	return "closed"
}

func effectiveRange(c ir.Clause) string {
	from := "?"
	if c.EffectiveFrom != nil {
		from = c.EffectiveFrom.Format("2006-01-02")
	}
	if c.EffectiveTo == nil {
		return from + " onward"
	}
	return from + " to " + c.EffectiveTo.Format("2006-01-02")
}
