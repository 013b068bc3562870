package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/go/sklog"
	"github.com/datasets-hub/orchestrator/housekeeping"
)

func newCleanDirectoryCmd() *cobra.Command {
	var pattern string
	var expiredAfter time.Duration
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clean-directory",
		Short: "Prune on-disk asset subdirectories older than a threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if dryRun {
				expired, err := housekeeping.ExpiredDirectories(ctx, pattern, expiredAfter)
				if err != nil {
					return err
				}
				sklog.Infof("clean-directory (dry-run): %d directories would be removed under %q", len(expired), pattern)
				return nil
			}
			removed, err := housekeeping.RemoveExpiredDirectories(ctx, pattern, expiredAfter)
			if err != nil {
				return err
			}
			sklog.Infof("clean-directory: removed %d directories under %q", len(removed), pattern)
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob pattern of subdirectories to consider, e.g. /cache/assets/*/* (required)")
	cmd.Flags().DurationVar(&expiredAfter, "expired-after", 24*time.Hour, "age past which a directory is eligible for removal")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be removed without deleting")
	cmd.MarkFlagRequired("pattern")
	return cmd
}
