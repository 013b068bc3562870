package main

import (
	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/go/sklog"
)

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete every pending job and cache row for a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator(flags)
			if err != nil {
				return err
			}
			if err := o.RemoveDataset(cmd.Context(), dataset); err != nil {
				return err
			}
			sklog.Infof("remove %s: done", dataset)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name (required)")
	cmd.MarkFlagRequired("dataset")
	return cmd
}
