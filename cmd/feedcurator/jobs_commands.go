package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"FeedCurator/internal/domain"
)

func newJobsCommand(configFlag *string) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the job queue",
	}

	jobsCmd.AddCommand(newJobsStatsCommand(configFlag))
	jobsCmd.AddCommand(newJobsListCommand(configFlag))
	jobsCmd.AddCommand(newJobsRetryCommand(configFlag))

	return jobsCmd
}

func newJobsStatsCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := loadApp(configFlag)
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.JobStore().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, status := range []domain.JobStatus{domain.JobPending, domain.JobProcessing, domain.JobCompleted, domain.JobDeadLetter} {
				if count, ok := stats[status]; ok {
					fmt.Fprintf(w, "%s\t%d\n", status, count)
				}
			}
			return w.Flush()
		},
	}
}

func newJobsListCommand(configFlag *string) *cobra.Command {
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := domain.ParseJobStatus(statusFlag)
			if !ok {
				return fmt.Errorf("unknown status %q", statusFlag)
			}

			application, _, err := loadApp(configFlag)
			if err != nil {
				return err
			}
			defer application.Close()

			jobs, err := application.JobStore().ListByStatus(cmd.Context(), status, limitFlag)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tRETRIES\tNEXT RUN\tLAST ERROR")
			for _, job := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
					job.ID, job.Type, job.RetryCount, job.MaxRetries,
					job.NextRunAt.Format("2006-01-02 15:04:05"), job.LastError)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "pending", "Job status to list")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum jobs to show")
	return cmd
}

func newJobsRetryCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a dead-lettered job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := loadApp(configFlag)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.JobStore().RetryDeadLetter(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s requeued\n", args[0])
			return nil
		},
	}
}
