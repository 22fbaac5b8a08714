package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"finwallet/internal/core"
)

type txFlags struct {
	txType   string
	amount   string
	currency string
	date     string
	wallet   string
	category string
	repeat   string
	note     string
	picture  string
}

func (f *txFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.txType, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&f.amount, "amount", "", "positive amount")
	cmd.Flags().StringVar(&f.currency, "currency", "", "ISO 4217 code (defaults to the wallet's)")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringVar(&f.wallet, "wallet", "", "wallet name")
	cmd.Flags().StringVar(&f.category, "category", "", "category name")
	cmd.Flags().StringVar(&f.repeat, "repeat", core.RepeatNone, "None, daily, weekly, monthly, yearly or a day count")
	cmd.Flags().StringVar(&f.note, "note", "", "free text note")
	cmd.Flags().StringVar(&f.picture, "picture", "", "attachment reference")
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tx", Short: "Record and inspect transactions"}

	var add txFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := core.ParseAmount(add.amount)
			if err != nil {
				return err
			}
			date := time.Now().UTC().Truncate(24 * time.Hour)
			if add.date != "" {
				if date, err = parseDate(add.date); err != nil {
					return err
				}
			}
			id, err := a.svc.Ledger.Create(cmd.Context(), core.Transaction{
				Type:     core.TransactionType(add.txType),
				Amount:   amount,
				Currency: add.currency,
				Date:     date,
				Wallet:   add.wallet,
				Category: add.category,
				Repeat:   add.repeat,
				Note:     add.note,
				Picture:  add.picture,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d recorded\n", id)
			return nil
		},
	}
	add.bind(addCmd)
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("wallet")

	var wallet, category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				txs []core.Transaction
				err error
			)
			switch {
			case wallet != "":
				txs, err = a.svc.Ledger.GetByWallet(cmd.Context(), wallet)
			case category != "":
				txs, err = a.svc.Ledger.GetByCategory(cmd.Context(), category)
			default:
				txs, err = a.svc.Ledger.GetAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printTransactions(cmd, txs)
		},
	}
	list.Flags().StringVar(&wallet, "wallet", "", "only this wallet")
	list.Flags().StringVar(&category, "category", "", "only this category")
	list.MarkFlagsMutuallyExclusive("wallet", "category")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tx, err := a.svc.Ledger.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if tx == nil {
				return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
			}
			return printTransactions(cmd, []core.Transaction{*tx})
		},
	}

	var upd txFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := upd.patch(cmd)
			if err != nil {
				return err
			}
			tx, err := a.svc.Ledger.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d updated\n", tx.ID)
			return nil
		},
	}
	upd.bind(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.Ledger.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d deleted\n", id)
			return nil
		},
	}

	next := &cobra.Command{
		Use:   "next DATE REPEAT",
		Short: "Print the occurrence after DATE for a recurrence tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			d, ok := a.svc.Ledger.NextBillDate(date, args[1])
			if !ok {
				return fmt.Errorf("%w: %q does not recur", core.ErrInvalidRepeat, args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatDate(d))
			return nil
		},
	}

	cmd.AddCommand(addCmd, list, get, update, del, next)
	return cmd
}

// patch only carries the flags the user actually set.
func (f *txFlags) patch(cmd *cobra.Command) (core.TransactionPatch, error) {
	var p core.TransactionPatch
	flags := cmd.Flags()
	if flags.Changed("type") {
		t := core.TransactionType(f.txType)
		p.Type = &t
	}
	if flags.Changed("amount") {
		amount, err := core.ParseAmount(f.amount)
		if err != nil {
			return p, err
		}
		p.Amount = &amount
	}
	if flags.Changed("currency") {
		p.Currency = &f.currency
	}
	if flags.Changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if flags.Changed("wallet") {
		p.Wallet = &f.wallet
	}
	if flags.Changed("category") {
		p.Category = &f.category
	}
	if flags.Changed("repeat") {
		p.Repeat = &f.repeat
	}
	if flags.Changed("note") {
		p.Note = &f.note
	}
	if flags.Changed("picture") {
		p.Picture = &f.picture
	}
	return p, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return id, nil
}

func printTransactions(cmd *cobra.Command, txs []core.Transaction) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCURRENCY\tWALLET\tCATEGORY\tREPEAT\tNOTE")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, formatDate(t.Date), t.Type, t.Amount, t.Currency, t.Wallet, t.Category, t.Repeat, t.Note)
	}
	return tw.Flush()
}
