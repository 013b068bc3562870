package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/go/sklog"
)

func newBackfillCmd(flags *globalFlags) *cobra.Command {
	var dataset, revision, priorityFlag string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Reconcile a dataset's full artifact tree, creating every missing job",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, q, _, err := newDependencies(flags)
			if err != nil {
				return err
			}
			if err := sweepExpiredLeases(cmd.Context(), q); err != nil {
				return err
			}
			priority, err := parsePriority(priorityFlag)
			if err != nil {
				return err
			}
			events, err := o.BackfillDataset(cmd.Context(), dataset, revision, priority)
			if err != nil {
				return err
			}
			sklog.Infof("backfill %s@%s: %v", dataset, revision, events)
			for _, e := range events {
				fmt.Println(e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name (required)")
	cmd.Flags().StringVar(&revision, "revision", "", "git revision (required)")
	cmd.Flags().StringVar(&priorityFlag, "priority", "low", "low, normal or high")
	cmd.MarkFlagRequired("dataset")
	cmd.MarkFlagRequired("revision")
	return cmd
}
