package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
)

// Job flag names
const (
	flagJobID       = "id"
	flagDescription = "description"
	flagDays        = "days"
	flagPayment     = "payment"
	flagFreelancer  = "freelancer"
	flagFilter      = "filter"
	flagWindow      = "window"
	flagBefore      = "before"
	flagRecent      = "recent"
)

// jobAction is a lifecycle operation that only needs the job id
type jobAction func(c client.Client) func(ctx context.Context, id uint) (models.JobView, error)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Post jobs and move them through the escrow lifecycle",
}

// GetJobsCmd returns the jobs command
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}

func init() {
	jobsCmd.AddCommand(postJobCmd)
	jobsCmd.AddCommand(selectJobCmd)
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(counterCmd)
	jobsCmd.AddCommand(statsCmd)

	jobsCmd.AddCommand(newJobActionCmd("apply", "Apply for an open job", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.ApplyForJob
	}))
	jobsCmd.AddCommand(newJobActionCmd("cancel", "Cancel an open job and get the reward back", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.CancelJob
	}))
	jobsCmd.AddCommand(newJobActionCmd("complete", "Mark an assigned job as delivered", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.MarkCompleted
	}))
	jobsCmd.AddCommand(newJobActionCmd("revise", "Send a completed job back for revision", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.RequestRevision
	}))
	jobsCmd.AddCommand(newJobActionCmd("pay", "Approve a completed job and pay the freelancer", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.ApproveAndPay
	}))
	jobsCmd.AddCommand(newJobActionCmd("withdraw", "Give up an assigned job and refund the client", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.FreelancerRefund
	}))
	jobsCmd.AddCommand(newJobActionCmd("refund", "Refund a late or completed job to the client", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.Refund
	}))
	jobsCmd.AddCommand(newJobActionCmd("get", "Get a job by its ID", func(c client.Client) func(context.Context, uint) (models.JobView, error) {
		return c.GetJob
	}))
	jobsCmd.AddCommand(ledgerCmd)

	postJobCmd.Flags().StringP(flagDescription, "d", "", "Job description")
	postJobCmd.Flags().Uint32P(flagDays, "D", 0, "Days the freelancer gets once selected")
	postJobCmd.Flags().Int64P(flagPayment, "p", 0, "Reward deposited into escrow")
	_ = postJobCmd.MarkFlagRequired(flagDays)
	_ = postJobCmd.MarkFlagRequired(flagPayment)

	selectJobCmd.Flags().UintP(flagJobID, "i", 0, "Job ID")
	selectJobCmd.Flags().StringP(flagFreelancer, "f", "", "Applicant to assign")
	selectJobCmd.Flags().Uint32P(flagDays, "D", 0, "Days until the deadline")
	_ = selectJobCmd.MarkFlagRequired(flagJobID)
	_ = selectJobCmd.MarkFlagRequired(flagFreelancer)
	_ = selectJobCmd.MarkFlagRequired(flagDays)

	listJobsCmd.Flags().StringP(flagFilter, "F", "", "Filter: all, marketplace, hires or gigs")
	listJobsCmd.Flags().IntP(flagWindow, "w", 0, "Number of recent job ids to scan")
	listJobsCmd.Flags().UintP(flagBefore, "b", 0, "Scan ids below this one")
	listJobsCmd.Flags().Bool(flagRecent, false, "Fetch the recent window job by job instead of listing")

	ledgerCmd.Flags().UintP(flagJobID, "i", 0, "Job ID")
	_ = ledgerCmd.MarkFlagRequired(flagJobID)
}

// newJobActionCmd builds a command running action on the job given by --id
func newJobActionCmd(use, short string, action jobAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := cmd.Flags().GetUint(flagJobID)
			if err != nil {
				return fmt.Errorf("error getting job ID flag: %w", err)
			}

			job, err := action(apiClient)(context.Background(), id)
			if err != nil {
				return fmt.Errorf("error running %s on job %d: %w", use, id, err)
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().UintP(flagJobID, "i", 0, "Job ID")
	_ = cmd.MarkFlagRequired(flagJobID)
	return cmd
}

var postJobCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a job and deposit its reward",
	RunE: func(cmd *cobra.Command, _ []string) error {
		description, _ := cmd.Flags().GetString(flagDescription)
		days, _ := cmd.Flags().GetUint32(flagDays)
		payment, _ := cmd.Flags().GetInt64(flagPayment)

		id, err := apiClient.PostJob(context.Background(), handlers.JobPostParams{
			Description:  description,
			DurationDays: days,
			Payment:      payment,
		})
		if err != nil {
			return fmt.Errorf("error posting job: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]uint{"id": id})
	},
}

var selectJobCmd = &cobra.Command{
	Use:   "select",
	Short: "Assign an applicant to your job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetUint(flagJobID)
		freelancer, _ := cmd.Flags().GetString(flagFreelancer)
		days, _ := cmd.Flags().GetUint32(flagDays)

		job, err := apiClient.SelectFreelancer(context.Background(), handlers.JobSelectParams{
			JobID:        id,
			Freelancer:   freelancer,
			DurationDays: days,
		})
		if err != nil {
			return fmt.Errorf("error selecting freelancer: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), job)
	},
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, _ := cmd.Flags().GetString(flagFilter)
		window, _ := cmd.Flags().GetInt(flagWindow)
		before, _ := cmd.Flags().GetUint(flagBefore)
		recent, _ := cmd.Flags().GetBool(flagRecent)

		if recent {
			jobs, err := apiClient.RecentJobs(context.Background(), window)
			if err != nil {
				return fmt.Errorf("error fetching recent jobs: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), jobs)
		}

		params := handlers.JobListParams{Filter: filter, Window: window, Before: before}
		if err := params.Validate(); err != nil {
			return err
		}
		resp, err := apiClient.ListJobs(context.Background(), params)
		if err != nil {
			return fmt.Errorf("error listing jobs: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Show how many jobs were ever posted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		counter, err := apiClient.JobCounter(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching job counter: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]uint{"counter": counter})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard counters for the caller",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := apiClient.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching stats: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the escrow movements of a job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetUint(flagJobID)

		entries, err := apiClient.LedgerEntries(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error fetching ledger of job %d: %w", id, err)
		}
		return printJSON(cmd.OutOrStdout(), entries)
	},
}
