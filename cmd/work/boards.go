package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/work/internal/state"
	"github.com/ShayCichocki/work/pkg/models"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List boards and the one selected for this project",
	Long: `List the boards, projects and repositories of every configured tracker.

The board selected for the current repository is marked with *. Items are
filtered to that board and new items are created there.`,
	Args: cobra.NoArgs,
	RunE: runBoards,
}

var boardsSetCmd = &cobra.Command{
	Use:   "set <source> <board-id>",
	Short: "Select the board for this project",
	Long: `Select the board for the current repository.

Examples:
  work boards set Trello 5f2b9c0e1a
  work boards set Jira ENG
  work boards set GitHub acme/api`,
	Args: cobra.ExactArgs(2),
	RunE: runBoardsSet,
}

var boardsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the board selected for this project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.db.DeleteBoardMapping(e.repoRoot); err != nil {
			return err
		}
		fmt.Printf("Cleared board for %s\n", e.repoRoot)
		return nil
	},
}

func init() {
	boardsCmd.AddCommand(boardsSetCmd)
	boardsCmd.AddCommand(boardsClearCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.cfg.RequireProviders(); err != nil {
		return err
	}

	current, err := e.db.GetBoardMapping(e.repoRoot)
	if err != nil && !errors.Is(err, state.ErrNoBoardMapping) {
		return err
	}

	boards, err := e.trackers().ListBoards(orBackground(cmd.Context()))
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}
	if len(boards) == 0 {
		fmt.Println("No boards found.")
		return nil
	}

	for _, b := range boards {
		fmt.Println(formatBoard(b, current))
	}
	return nil
}

// formatBoard renders a board line, marking the current selection.
func formatBoard(b models.BoardInfo, current *state.BoardMapping) string {
	marker := " "
	if current != nil && current.Source == b.Source && current.BoardID == b.ID {
		marker = color.New(color.FgGreen, color.Bold).Sprint("*")
	}
	return fmt.Sprintf("%s %-7s %-24s %s", marker, b.Source, b.ID, b.Name)
}

func runBoardsSet(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	source, id := args[0], args[1]
	boards, err := e.trackers().ListBoards(orBackground(cmd.Context()))
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	board, ok := findBoard(boards, source, id)
	if !ok {
		return fmt.Errorf("no %s board %q (run 'work boards' to list them)", source, id)
	}
	if err := e.db.SetBoardMapping(e.repoRoot, board); err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("%s board %s selected for %s", board.Source, board.Name, e.repoRoot), color.FgGreen)
	return nil
}

// findBoard matches source case-insensitively and id exactly.
func findBoard(boards []models.BoardInfo, source, id string) (models.BoardInfo, bool) {
	for _, b := range boards {
		if strings.EqualFold(b.Source, source) && b.ID == id {
			return b, true
		}
	}
	return models.BoardInfo{}, false
}
