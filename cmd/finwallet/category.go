package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := a.svc.Categories.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "category %q created\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename OLD NEW",
			Short: "Rename a category everywhere it is used",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.svc.Categories.Rename(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "category %q renamed to %q\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete an unused category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.svc.Categories.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "category %q deleted\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cs, err := a.svc.Categories.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cs {
					fmt.Fprintln(cmd.OutOrStdout(), c.Name)
				}
				return nil
			},
		},
	)
	return cmd
}
