package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/go/sklog"
)

func newSetRevisionCmd(flags *globalFlags) *cobra.Command {
	var dataset, revision, priorityFlag string
	cmd := &cobra.Command{
		Use:   "set-revision",
		Short: "Seed a dataset's root processing steps at a git revision",
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
			events, err := o.SetRevision(cmd.Context(), dataset, revision, priority)
			if err != nil {
				return err
			}
			sklog.Infof("set-revision %s@%s: %v", dataset, revision, events)
			for _, e := range events {
				fmt.Println(e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name (required)")
	cmd.Flags().StringVar(&revision, "revision", "", "git revision (required)")
	cmd.Flags().StringVar(&priorityFlag, "priority", "normal", "low, normal or high")
	cmd.MarkFlagRequired("dataset")
	cmd.MarkFlagRequired("revision")
	return cmd
}
