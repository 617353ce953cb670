package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newConvertCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "convert AMOUNT FROM TO",
		Short:   "Convert an amount between two currencies",
		Example: "  currencyconverter convert 10 USD EUR",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 3 {
				return usageError{fmt.Errorf("convert takes 3 arguments, got %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil || amount.IsNegative() {
				return usageError{fmt.Errorf("invalid amount %q", args[0])}
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

			a, err := newApp(cmd.Context(), opts.cfg, opts.version)
			if err != nil {
				return err
			}
			defer a.Close()

			conv, err := a.conversions.Convert(cmd.Context(), amount, from, to)
			if err != nil {
				return err
			}
			if conv == nil {
				if amount.IsZero() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "0 %s = 0 %s\n", from, to)
					return nil
				}
				return errors.New("value not found for " + from + "_" + to)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", conv.Amount, conv.From, conv.Result.StringFixed(2), conv.To)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), conv.Message())

			a.conversions.Wait()
			select {
			case err := <-a.conversions.WriteBackErrors():
				cmd.PrintErrln("warning: rate not cached:", err)
			default:
			}

			return nil
		},
	}
}
