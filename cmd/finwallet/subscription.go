package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finwallet/internal/core"
)

type subFlags struct {
	name     string
	amount   string
	currency string
	billing  string
	repeat   string
	reminder int
	category string
}

func (f *subFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "positive amount")
	cmd.Flags().StringVar(&f.currency, "currency", "", "ISO 4217 code")
	cmd.Flags().StringVar(&f.billing, "billing-date", "", "next billing date as YYYY-MM-DD")
	cmd.Flags().StringVar(&f.repeat, "repeat", string(core.Monthly), "None, daily, weekly, monthly, yearly or a day count")
	cmd.Flags().IntVar(&f.reminder, "reminder", 0, "days before billing to remind")
	cmd.Flags().StringVar(&f.category, "category", "", "category name")
}

func newSubscriptionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "subscription", Aliases: []string{"sub"}, Short: "Manage subscriptions"}

	var c subFlags
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(c.amount)
			if err != nil {
				return err
			}
			billing, err := parseDate(c.billing)
			if err != nil {
				return err
			}
			name, err := a.svc.Subscriptions.Create(cmd.Context(), core.Subscription{
				Name:           args[0],
				Amount:         amount,
				Currency:       c.currency,
				BillingDate:    billing,
				Repeat:         c.repeat,
				ReminderBefore: c.reminder,
				Category:       c.category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscription %q created\n", name)
			return nil
		},
	}
	c.bind(create)
	_ = create.MarkFlagRequired("amount")
	_ = create.MarkFlagRequired("billing-date")

	var u subFlags
	update := &cobra.Command{
		Use:   "update NAME",
		Short: "Update or rename a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p core.SubscriptionPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &u.name
			}
			if flags.Changed("amount") {
				amount, err := core.ParseAmount(u.amount)
				if err != nil {
					return err
				}
				p.Amount = &amount
			}
			if flags.Changed("currency") {
				p.Currency = &u.currency
			}
			if flags.Changed("billing-date") {
				d, err := parseDate(u.billing)
				if err != nil {
					return err
				}
				p.BillingDate = &d
			}
			if flags.Changed("repeat") {
				p.Repeat = &u.repeat
			}
			if flags.Changed("reminder") {
				p.ReminderBefore = &u.reminder
			}
			if flags.Changed("category") {
				p.Category = &u.category
			}
			s, err := a.svc.Subscriptions.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscription %q updated\n", s.Name)
			return nil
		},
	}
	u.bind(update)
	update.Flags().StringVar(&u.name, "name", "", "new name")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Subscriptions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscription %q deleted\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := a.svc.Subscriptions.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			return printSubscriptions(cmd, subs)
		},
	}

	upcoming := &cobra.Command{
		Use:   "upcoming",
		Short: "List subscriptions whose reminder window has opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := a.svc.Subscriptions.Upcoming(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return printSubscriptions(cmd, subs)
		},
	}

	cmd.AddCommand(create, update, del, list, upcoming)
	return cmd
}

func printSubscriptions(cmd *cobra.Command, subs []core.Subscription) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "NAME\tAMOUNT\tCURRENCY\tNEXT BILLING\tREPEAT\tREMIND\tCATEGORY")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Amount, s.Currency, formatDate(s.BillingDate), s.Repeat, formatDate(s.ReminderDate()), s.Category)
	}
	return tw.Flush()
}
