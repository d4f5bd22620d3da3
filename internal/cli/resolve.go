package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/planaxis/planaxis/internal/resolve"
)

// NewResolveCommand groups the site and address resolvers.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve addresses to candidates and sites to instruments",
	}
	cmd.AddCommand(newResolveSiteCommand(rootOpts))
	cmd.AddCommand(newResolveAddressCommand(rootOpts))
	return cmd
}

func newResolveSiteCommand(rootOpts *RootOptions) *cobra.Command {
	var lga string

	cmd := &cobra.Command{
		Use:   "site <address>",
		Short: "Determine which instruments govern a site",
		Long: `Determine the applicable planning instruments for an address.
Statewide policies always apply; the local plan is chosen by inferring
the local government area from the address text, or from --lga when
supplied. The output includes a rationale line for every inclusion.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolveSite(rootOpts, cmd, strings.Join(args, " "), lga)
		},
	}
	cmd.Flags().StringVar(&lga, "lga", "", "explicit local government area, overrides inference")
	return cmd
}

func runResolveSite(opts *RootOptions, cmd *cobra.Command, address, lga string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := opts.loadRegistry()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	gaz, err := opts.loadGazetteer()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	res := resolve.NewSiteResolver(reg, gaz).ResolveSite(address, lga)
	return formatter.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "address: %s\n", res.Address)
		if res.LGA != "" {
			fmt.Fprintf(w, "lga: %s\n", res.LGA)
		}
		fmt.Fprintln(w, "instruments:")
		for _, slug := range res.InstrumentSlugs {
			fmt.Fprintf(w, "  - %s\n", slug)
		}
		fmt.Fprintln(w, "rationale:")
		for _, r := range res.Rationale {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	})
}

func newResolveAddressCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		source      string
		limit       int
		project     string
		placesURL   string
		propertyURL string
	)

	cmd := &cobra.Command{
		Use:   "address <free-text>",
		Short: "Resolve a free-text address to scored site candidates",
		Long: `Resolve a free-text address through the provider chain and print
the ranked candidates with confidence scores and the match decision.

Provider endpoints come from --places-url and --property-url, falling
back to the PLANAXIS_PLACES_URL and PLANAXIS_PROPERTY_URL environment
variables. The places API key is read from PLANAXIS_PLACES_KEY.

With --project, an automatic match is persisted as that project's
chosen site.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolveAddress(rootOpts, cmd, strings.Join(args, " "), source, limit, project, placesURL, propertyURL)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "restrict to one provider (places|property)")
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum candidates per provider")
	cmd.Flags().StringVar(&project, "project", "", "persist an automatic match under this project key")
	cmd.Flags().StringVar(&placesURL, "places-url", "", "base URL of the places autocomplete service")
	cmd.Flags().StringVar(&propertyURL, "property-url", "", "base URL of the property search service")
	return cmd
}

func runResolveAddress(opts *RootOptions, cmd *cobra.Command, input, source string, limit int, project, placesURL, propertyURL string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := opts.logging()

	if placesURL == "" {
		placesURL = os.Getenv("PLANAXIS_PLACES_URL")
	}
	if propertyURL == "" {
		propertyURL = os.Getenv("PLANAXIS_PROPERTY_URL")
	}

	var chain []resolve.Strategy
	if placesURL != "" {
		chain = append(chain, &resolve.PlacesProvider{
			Client: &resolve.HTTPPlacesClient{BaseURL: placesURL, APIKey: os.Getenv("PLANAXIS_PLACES_KEY")},
			Limit:  limit,
			Log:    log,
		})
	}
	if propertyURL != "" {
		chain = append(chain, &resolve.PropertyProvider{
			Client: &resolve.HTTPPropertyClient{BaseURL: propertyURL},
			Limit:  limit,
			Log:    log,
		})
	}

	resolver := resolve.NewResolver("NSW", chain, resolve.WithResolverLogger(log))
	res, err := resolver.ResolveAddress(cmd.Context(), input, source)
	if err != nil {
		wrapped := WrapExitError(ExitFailure, "resolve address", err)
		formatter.Error(ErrCodeResolve, wrapped.Error(), nil)
		return wrapped
	}

	if project != "" {
		if best, ok := res.Best(); ok {
			st, err := opts.openStore()
			if err != nil {
				formatter.Error(ErrCodeStore, err.Error(), nil)
				return err
			}
			defer st.Close()
			if err := st.UpsertSite(cmd.Context(), project, best, time.Now().UTC()); err != nil {
				wrapped := WrapExitError(ExitCommandError, "save site", err)
				formatter.Error(ErrCodeStore, wrapped.Error(), nil)
				return wrapped
			}
			formatter.VerboseLog("saved %s as site for project %s", best.FormattedAddress, project)
		} else {
			formatter.VerboseLog("no automatic match, project %s left unchanged", project)
		}
	}

	return formatter.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "query: %s\n", res.Query)
		fmt.Fprintf(w, "decision: %s\n", res.Decision)
		for _, c := range res.Candidates {
			fmt.Fprintf(w, "  %.2f  %s", c.Confidence, c.FormattedAddress)
			if c.Zone != "" {
				fmt.Fprintf(w, "  [%s]", c.Zone)
			}
			fmt.Fprintln(w)
		}
	})
}
