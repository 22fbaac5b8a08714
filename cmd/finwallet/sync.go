package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errLocalOnly = errors.New("no sync backend configured; running local-only")

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Inspect and replay the outbox"}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show outbox counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc.Processor == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "local-only: nothing is mirrored")
				return nil
			}
			st, err := a.svc.Processor.Stats(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "PENDING\tPROCESSING\tCOMPLETED\tFAILED")
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", st.Pending, st.Processing, st.Completed, st.Failed)
			return tw.Flush()
		},
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Replay pending operations now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc.Processor == nil {
				return errLocalOnly
			}
			res, err := a.svc.Processor.Drain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d: %d mirrored, %d failed\n", res.Processed, res.Succeeded, res.Failed)
			return nil
		},
	}

	retry := &cobra.Command{
		Use:   "retry",
		Short: "Move parked operations back to pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc.Processor == nil {
				return errLocalOnly
			}
			n, err := a.svc.Processor.RetryFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d operations requeued\n", n)
			return nil
		},
	}

	cmd.AddCommand(status, run, retry)
	return cmd
}
