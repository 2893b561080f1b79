package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var (
	rootAuto     bool
	rootRepoRoot string
)

// CheckEngineCLI verifies that the engine command is available in PATH.
// Returns an error with installation instructions if not found.
func CheckEngineCLI(command string) error {
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("%s not found in PATH\n\n"+
			"work launches the Claude Code CLI for every dispatched item.\n\n"+
			"Install it with:\n"+
			"  npm install -g @anthropic-ai/claude-code\n\n"+
			"or point engine.command at another executable in ~/.config/work/config.yaml", command)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "work",
	Short: "Dispatch tracker items to a pool of coding agents",
	Long: `work shows the items assigned to you in Linear, Trello, Jira and GitHub
next to four agents (Ember, Flow, Tempest and Terra). Dispatching an item
creates a branch and worktree for the agent and runs the coding engine there
unattended.

With no arguments, launches the dashboard.

Keys:
  d dispatch   c clear agent   a auto mode   r refresh   b boards
  enter agent activity   i new task or @agent message   q quit`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&rootAuto, "auto", false, "Start in auto mode")
	rootCmd.PersistentFlags().StringVar(&rootRepoRoot, "repo", "", "Repository the agents work in (default: agents.repo_root or current directory)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
