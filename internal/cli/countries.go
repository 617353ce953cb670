package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCountriesCommand(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List supported currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, opts.version)
			if err != nil {
				return err
			}
			defer a.Close()

			countries, err := a.conversions.FetchCountries(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "CODE\tSYMBOL\tCOUNTRY")
			for _, c := range countries {
				if filter != "" && !matches(c.CountryName, c.CurrencyID, filter) {
					continue
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CurrencyID, c.Symbol, c.CountryName)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "only list countries or codes containing this text")

	return cmd
}

func matches(name, code, filter string) bool {
	filter = strings.ToLower(filter)
	return strings.Contains(strings.ToLower(name), filter) || strings.Contains(strings.ToLower(code), filter)
}
