package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

func newSessionCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the saved form state",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the last saved form state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(cmd.Context(), opts.cfg, opts.version)
				if err != nil {
					return err
				}
				defer a.Close()

				state, ok := a.sessions.Restore(cmd.Context())
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no saved session")
					return nil
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "from: %s %s %s\n", state.FromSymbol, state.FromAmount, state.FromCountry)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "to:   %s %s %s\n", state.ToSymbol, state.ToAmount, state.ToCountry)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the saved form state to its defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(cmd.Context(), opts.cfg, opts.version)
				if err != nil {
					return err
				}
				defer a.Close()

				_, notice, err := a.form.HandleChange(cmd.Context(), model.DefaultSessionState(), model.FieldReset, "")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice.Text)
				return nil
			},
		},
	)

	return cmd
}
