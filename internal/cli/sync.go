package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/engine"
	"github.com/planaxis/planaxis/internal/ir"
)

// SyncReport is the per-instrument outcome of a sync run.
type SyncReport struct {
	Slug    string `json:"slug"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Retired int    `json:"retired"`
	Error   string `json:"error,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		all     bool
		fromDir string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "sync [slug...]",
		Short: "Fetch and synchronize instruments into the clause store",
		Long: `Fetch each instrument's source document, parse it into clauses and
diff the result against the store. Unchanged clauses are untouched,
changed ones get a new version, and clauses missing from the document
are retired.

Documents are fetched from each instrument's source_url. With
--from-dir, documents are read from <dir>/<slug>.xml or .html instead,
which is how fixture snapshots and air-gapped runs work.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return NewExitError(ExitCommandError, "name at least one instrument or pass --all")
			}
			return runSync(rootOpts, cmd, args, all, fromDir, retries)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "sync every registered instrument")
	cmd.Flags().StringVar(&fromDir, "from-dir", "", "read documents from this directory instead of fetching")
	cmd.Flags().IntVar(&retries, "retries", 2, "fetch retries per instrument")
	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command, slugs []string, all bool, fromDir string, retries int) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := opts.loadRegistry()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	var configs []ir.InstrumentConfig
	if all {
		configs = reg.All()
	} else {
		for _, slug := range slugs {
			cfg, err := reg.Get(slug)
			if err != nil {
				wrapped := WrapExitError(ExitCommandError, "unknown instrument", err)
				formatter.Error(ErrCodeConfig, wrapped.Error(), nil)
				return wrapped
			}
			configs = append(configs, cfg)
		}
	}

	st, err := opts.openStore()
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	var fetcher engine.Fetcher = engine.HTTPFetcher{Retries: retries}
	if fromDir != "" {
		fetcher = engine.FixtureFetcher{Dir: fromDir}
	}
	syn := engine.New(st, fetcher, engine.WithLogger(opts.logging()))

	ctx := cmd.Context()
	reports := make([]SyncReport, 0, len(configs))
	failed := 0
	for _, cfg := range configs {
		report := SyncReport{Slug: cfg.Slug}
		result, err := syn.SyncFromSource(ctx, cfg)
		if err != nil {
			report.Error = err.Error()
			failed++
		} else {
			report.Added = result.Added
			report.Updated = result.Updated
			report.Retired = result.Retired
		}
		reports = append(reports, report)
	}

	if err := formatter.Success(reports, func(w io.Writer) {
		for _, r := range reports {
			if r.Error != "" {
				fmt.Fprintf(w, "%-28s FAILED: %s\n", r.Slug, r.Error)
				continue
			}
			fmt.Fprintf(w, "%-28s +%d ~%d -%d\n", r.Slug, r.Added, r.Updated, r.Retired)
		}
	}); err != nil {
		return err
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d instruments failed to sync", failed, len(reports)))
	}
	return nil
}
