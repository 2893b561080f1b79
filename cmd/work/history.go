package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [agent]",
	Short: "Show past dispatch attempts",
	Long: `List recent runs, newest first, with their outcome and duration.

Examples:
  work history
  work history terra -n 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	var name models.AgentName
	if len(args) == 1 {
		n, err := models.ParseAgentName(args[0])
		if err != nil {
			return err
		}
		name = n
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	runs, err := e.db.ListRuns(name, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	now := time.Now()
	for _, r := range runs {
		fmt.Println(formatRun(r, now))
		if r.Message != "" && r.Outcome != state.RunSucceeded {
			fmt.Printf("      %s\n", r.Message)
		}
	}
	return nil
}

// formatRun renders one run as a single line.
func formatRun(r state.Run, now time.Time) string {
	outcome := outcomeColor(r.Outcome).Sprintf("%-16s", r.Outcome)
	line := fmt.Sprintf("%s %-8s %s %s %s (%s)",
		r.StartedAt.Local().Format("2006-01-02 15:04"),
		r.Agent.DisplayName(),
		outcome,
		r.WorkItemID,
		r.WorkItemTitle,
		formatDuration(r.Duration(now)))
	if r.Attempt > 1 {
		line += fmt.Sprintf(" [attempt %d]", r.Attempt)
	}
	return line
}

func outcomeColor(o state.RunOutcome) *color.Color {
	switch o {
	case state.RunSucceeded:
		return color.New(color.FgGreen)
	case state.RunRunning:
		return color.New(color.FgYellow)
	case state.RunCleared:
		return color.New(color.Faint)
	default:
		return color.New(color.FgRed)
	}
}
