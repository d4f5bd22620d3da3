package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/search"
)

// NewSearchCommand creates the clause search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		instruments []string
		kinds       []string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search current clauses across instruments",
		Long: `Search the current clause set. Hits are ranked by how many query
terms they contain, with title matches weighted above body matches.
Without a query, every current clause is listed in stable order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, cmd, strings.Join(args, " "), instruments, kinds, limit)
		},
	}
	cmd.Flags().StringSliceVar(&instruments, "instrument", nil, "restrict to these instrument slugs")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to instrument kinds (statewide_policy|local_plan)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum hits (0 for unlimited)")
	return cmd
}

func runSearch(opts *RootOptions, cmd *cobra.Command, text string, instruments, kinds []string, limit int) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var kindFilters []ir.InstrumentKind
	for _, k := range kinds {
		kind := ir.InstrumentKind(k)
		if !kind.Valid() {
			wrapped := NewExitError(ExitCommandError, fmt.Sprintf("unknown instrument kind %q", k))
			formatter.Error(ErrCodeConfig, wrapped.Error(), nil)
			return wrapped
		}
		kindFilters = append(kindFilters, kind)
	}

	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	hits, err := search.New(st).Search(cmd.Context(), search.Query{
		Text:  text,
		Slugs: instruments,
		Kinds: kindFilters,
		Limit: limit,
	})
	if err != nil {
		wrapped := WrapExitError(ExitCommandError, "search", err)
		formatter.Error(ErrCodeStore, wrapped.Error(), nil)
		return wrapped
	}

	return formatter.Success(hits, func(w io.Writer) {
		if len(hits) == 0 {
			fmt.Fprintln(w, "no matching clauses")
			return
		}
		for _, h := range hits {
			fmt.Fprintf(w, "%s  %s v%d\n", h.InstrumentSlug, h.ClauseKey, h.Version)
			if h.Title != "" {
				fmt.Fprintf(w, "  %s\n", h.Title)
			}
			fmt.Fprintf(w, "  %s\n", h.Snippet)
		}
	})
}
