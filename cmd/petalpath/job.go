package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fentz26/petalpath/internal/models"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect queued solves",
}

var jobShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show solve job details",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobShow,
}

func init() {
	jobCmd.AddCommand(jobShowCmd)
}

func runJobShow(cmd *cobra.Command, args []string) error {
	var job models.SolveJob
	if err := apiDecode("/jobs/"+args[0], &job); err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", job.ID)
	fmt.Printf("Game:      %s\n", job.GameID)
	fmt.Printf("Strategy:  %s\n", job.Strategy)
	fmt.Printf("Status:    %s\n", job.Status)
	if job.ClaimedBy != "" {
		fmt.Printf("Worker:    %s\n", job.ClaimedBy)
	}
	if job.Status == models.JobStatusCompleted {
		fmt.Printf("Actions:   %d\n", job.Actions)
		fmt.Printf("Outcome:   %s\n", job.Outcome)
	}
	if job.Error != "" {
		fmt.Printf("Error:     %s\n", job.Error)
	}
	fmt.Printf("Created:   %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:   %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
