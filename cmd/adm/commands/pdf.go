package commands

import (
	"context"

	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"

	"github.com/spf13/cobra"
)

// PDFCommands returns the PDF job queue management commands
func PDFCommands(jobs serviceinterfaces.PDFJobStore, logger *observability.Logger) *cobra.Command {
	pdfCmd := &cobra.Command{
		Use:   "pdf",
		Short: "PDF job queue management commands",
		Long: `PDF job queue management commands for the lingotext application.

Available commands:
  requeue   - Reset failed textbook jobs so the worker retries them`,
	}

	pdfCmd.AddCommand(requeueCmd(jobs, logger))

	return pdfCmd
}

func requeueCmd(jobs serviceinterfaces.PDFJobStore, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue",
		Short: "Requeue failed PDF jobs",
		Long: `Reset all failed textbook jobs back to pending with a fresh attempt
counter. The worker picks them up on its next poll.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			count, err := jobs.RequeueFailedJobs(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to requeue PDF jobs", err, nil)
				return err
			}

			cmd.Printf("Requeued %d failed job(s)\n", count)
			return nil
		},
	}
}
