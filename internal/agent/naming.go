// Package agent provides workspace naming, prompts, and the external engine
// used by the work orchestrator.
package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/work/pkg/models"
)

const (
	maxSlugLen    = 40
	shortIDLength = 8
)

// Slugify lowercases title, maps every non-ASCII-alphanumeric character to
// '-', trims dashes from both ends, and truncates to 40 characters.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}

// BranchName returns "agent/<agent>/<first 8 chars of id>-<slug>".
func BranchName(name models.AgentName, itemID, title string) string {
	short := []rune(itemID)
	if len(short) > shortIDLength {
		short = short[:shortIDLength]
	}
	return fmt.Sprintf("agent/%s/%s-%s", name, string(short), Slugify(title))
}

// WorktreePath returns the agent's worktree directory, a sibling of the
// main checkout named "agent-<agent>".
func WorktreePath(repoRoot string, name models.AgentName) string {
	parent := filepath.Dir(filepath.Clean(repoRoot))
	return filepath.Join(parent, "agent-"+string(name))
}

// LogPath returns the per-agent engine output file inside logDir.
func LogPath(logDir string, name models.AgentName) string {
	return filepath.Join(logDir, "agent-"+string(name)+".log")
}
