// Package exec provides an interface for command execution.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// Output executes a command and returns stdout only. On failure the
	// returned error carries the trimmed stderr.
	Output(ctx context.Context, workDir string, name string, args ...string) (stdout []byte, err error)

	// LookPath reports where an executable is installed.
	LookPath(name string) (string, error)
}
