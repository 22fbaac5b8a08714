package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [WALLET]",
		Short: "Show balances per wallet, or one wallet's balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				bal, err := a.svc.Balances.GetBalance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), bal.String())
				return nil
			}

			balances, err := a.svc.Balances.Balances(cmd.Context())
			if err != nil {
				return err
			}
			total, err := a.svc.Balances.GetTotalBalance(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "WALLET\tBALANCE\tCURRENCY")
			for _, b := range balances {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Wallet.Name, b.Balance, b.Wallet.Currency)
			}
			fmt.Fprintf(tw, "TOTAL\t%s\t\n", total)
			return tw.Flush()
		},
	}
}
