package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finwallet/internal/core"
)

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "wallet", Short: "Manage wallets"}

	var initAmount, currency, visible string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseSignedAmount(initAmount)
			if err != nil {
				return err
			}
			name, err := a.svc.Wallets.Create(cmd.Context(), core.Wallet{
				Name: args[0], InitAmount: amount, Currency: currency, VisibleCategory: visible,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet %q created\n", name)
			return nil
		},
	}
	create.Flags().StringVar(&initAmount, "init", "0", "opening balance")
	create.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	create.Flags().StringVar(&visible, "visible-category", "", "category shown for this wallet")
	_ = create.MarkFlagRequired("currency")

	var newName, newInit, newCurrency, newVisible string
	update := &cobra.Command{
		Use:   "update NAME",
		Short: "Update or rename a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.WalletPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &newName
			}
			if flags.Changed("init") {
				amount, err := core.ParseSignedAmount(newInit)
				if err != nil {
					return err
				}
				patch.InitAmount = &amount
			}
			if flags.Changed("currency") {
				patch.Currency = &newCurrency
			}
			if flags.Changed("visible-category") {
				patch.VisibleCategory = &newVisible
			}
			w, err := a.svc.Wallets.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet %q updated\n", w.Name)
			return nil
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name")
	update.Flags().StringVar(&newInit, "init", "", "opening balance")
	update.Flags().StringVar(&newCurrency, "currency", "", "ISO 4217 currency code")
	update.Flags().StringVar(&newVisible, "visible-category", "", "category shown for this wallet")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a wallet no transaction references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Wallets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet %q deleted\n", args[0])
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.svc.Wallets.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("wallet %q: %w", args[0], core.ErrNotFound)
			}
			return printWallets(cmd, []core.Wallet{*w})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.svc.Wallets.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			return printWallets(cmd, ws)
		},
	}

	balance := &cobra.Command{
		Use:   "balance NAME",
		Short: "Show a wallet's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := a.svc.Balances.GetBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bal.String())
			return nil
		},
	}

	cmd.AddCommand(create, update, del, get, list, balance)
	return cmd
}

func printWallets(cmd *cobra.Command, ws []core.Wallet) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "NAME\tINIT\tCURRENCY\tVISIBLE CATEGORY")
	for _, w := range ws {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.Name, w.InitAmount, w.Currency, w.VisibleCategory)
	}
	return tw.Flush()
}
