package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/agent"
	"github.com/ShayCichocki/work/pkg/models"
)

var (
	logsLimit  int
	logsFollow bool
	logsOutput bool
)

var logsCmd = &cobra.Command{
	Use:   "logs [agent]",
	Short: "Show agent activity",
	Long: `Print the activity log, for one agent or for all of them.

With --follow, keeps printing new events until interrupted.
With --output, prints the engine output of the agent's last run instead.

Examples:
  work logs             # recent activity of every agent
  work logs flow -n 20  # last 20 events for Flow
  work logs -f          # follow all activity
  work logs ember --output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "Number of events to show")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep printing new events")
	logsCmd.Flags().BoolVar(&logsOutput, "output", false, "Print the engine output of the agent's last run")
}

func runLogs(cmd *cobra.Command, args []string) error {
	var name models.AgentName
	if len(args) == 1 {
		n, err := models.ParseAgentName(args[0])
		if err != nil {
			return err
		}
		name = n
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataDir := dataDirFor(cfg)

	if logsOutput {
		if name == "" {
			return fmt.Errorf("--output needs an agent name")
		}
		return printEngineOutput(agent.LogPath(filepath.Join(dataDir, "logs"), name), os.Stdout)
	}

	log := activity.New(filepath.Join(dataDir, activity.FileName))
	for _, e := range log.Read(name, logsLimit) {
		fmt.Println(formatEvent(e))
	}
	if !logsFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(orBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = log.Follow(ctx, name, func(e activity.Event) {
		fmt.Println(formatEvent(e))
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

// formatEvent renders an event as one line.
func formatEvent(e activity.Event) string {
	line := fmt.Sprintf("%s %-8s %-12s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Agent.DisplayName(), e.Event)
	if e.WorkItemID != "" {
		line += " " + e.WorkItemID
	}
	if e.Message != "" {
		line += " " + e.Message
	}
	return line
}

func printEngineOutput(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no engine output at %s", path)
		}
		return fmt.Errorf("open engine output: %w", err)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
