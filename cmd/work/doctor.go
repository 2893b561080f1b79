package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/work/internal/config"
	"github.com/ShayCichocki/work/internal/git"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that work can run here",
	Long: `Check the tools, credentials and directories work depends on.

Exits with an error if anything required is missing. Warnings are printed
for optional pieces.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printStatus("✗", err.Error(), color.FgRed)
		return err
	}
	printStatus("✓", "Configuration loaded", color.FgGreen)

	failed := 0
	fail := func(msg string) {
		printStatus("✗", msg, color.FgRed)
		failed++
	}

	if _, err := exec.LookPath("git"); err != nil {
		fail("Git not found")
	} else {
		printStatus("✓", "Git found", color.FgGreen)
	}

	if err := CheckEngineCLI(cfg.Engine.Command); err != nil {
		fail(fmt.Sprintf("Engine %q not found in PATH", cfg.Engine.Command))
	} else {
		printStatus("✓", fmt.Sprintf("Engine %q found", cfg.Engine.Command), color.FgGreen)
	}

	repoRoot, err := cfg.RepoRoot()
	if err != nil {
		fail(err.Error())
	} else if branch, err := git.NewRunner(repoRoot).CurrentBranch(); err != nil {
		fail(fmt.Sprintf("%s is not a git repository", repoRoot))
	} else {
		printStatus("✓", fmt.Sprintf("Repository %s (on %s)", repoRoot, branch), color.FgGreen)
	}

	providers := cfg.EnabledProviders()
	if len(providers) == 0 {
		printStatus("⚠", "No tracker configured; the dashboard will only show local items", color.FgYellow)
	} else {
		printStatus("✓", "Trackers: "+strings.Join(providers, ", "), color.FgGreen)
	}
	if cfg.GitHub.Enabled() {
		if _, err := exec.LookPath("gh"); err != nil {
			fail("github.owner is set but the gh CLI is not installed")
		} else {
			printStatus("✓", "gh CLI found", color.FgGreen)
		}
	}

	switch cfg.Engine.ChatBackend {
	case config.ChatBackendAPI:
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			fail("Chat backend is api but ANTHROPIC_API_KEY is not set")
		} else if err := config.ValidateAPIKey(key); err != nil {
			fail(err.Error())
		} else {
			printStatus("✓", fmt.Sprintf("Anthropic API key %s (from %s)", config.MaskSecret(key), config.GetAPIKeySource(cfg)), color.FgGreen)
		}
	case config.ChatBackendBedrock:
		printStatus("✓", fmt.Sprintf("Chat via Bedrock in %s", orDefault(cfg.Engine.AWSRegion, "the default region")), color.FgGreen)
	default:
		printStatus("✓", "Chat via the engine CLI", color.FgGreen)
	}

	printStatus("✓", "Data directory "+dataDirFor(cfg), color.FgGreen)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// printStatus prints a status line with a colored symbol.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
