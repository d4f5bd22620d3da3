package cli

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/engine"
	"github.com/planaxis/planaxis/internal/metrics"
)

// NewServeCommand creates the metrics endpoint command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr     string
		interval string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync scheduler with a Prometheus metrics endpoint",
		Long: `Periodically sync every registered instrument and expose Prometheus
metrics on /metrics plus a liveness probe on /healthz. Documents are
fetched from each instrument's source_url.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd, addr, interval)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9464", "listen address for the metrics endpoint")
	cmd.Flags().StringVar(&interval, "interval", "24h", "how often to re-sync every instrument")
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command, addr, interval string) error {
	log := opts.logging()

	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	every, err := time.ParseDuration(interval)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse --interval", err)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	syn := engine.New(st, engine.HTTPFetcher{Retries: 2},
		engine.WithLogger(log),
		engine.WithMetrics(m),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			for _, cfg := range reg.All() {
				if _, err := syn.SyncFromSource(ctx, cfg); err != nil {
					log.Error().Err(err).Str("instrument", cfg.Slug).Msg("scheduled sync failed")
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}
