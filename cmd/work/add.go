package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addDescription string

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a work item in the selected tracker",
	Long: `Create a work item assigned to you.

The tracker of the board mapped to this project is tried first, then the
other configured trackers. Trello, Jira and GitHub need a board (see
'work boards') before they can create items.

Examples:
  work add "Fix flaky login test"
  work add "Upgrade the SDK" -d "Move to the v2 client and drop the shim"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Item description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.cfg.RequireProviders(); err != nil {
		return err
	}

	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return errors.New("title must not be empty")
	}

	item, err := e.trackers().Create(orBackground(cmd.Context()), title, addDescription)
	if item == nil {
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		return errors.New("no configured tracker can create items here; pick a board with 'work boards set <source> <id>'")
	}
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	fmt.Printf("Created %s in %s: %s\n", item.ID, item.Source, item.Title)
	if item.URL != "" {
		fmt.Printf("  %s\n", item.URL)
	}
	return nil
}
