package core

import (
	"context"
)

// Runner executes a command on a named host. It is the narrow contract
// the rest of the system depends on; the SSH implementation lives in
// pkg/remote, tests substitute an in-memory fake.
type Runner interface {
	// Run executes a command on the host and returns its output and
	// exit status. A non-zero exit status is reported through the
	// result, not as an error; an error means the host could not be
	// reached or the command could not be started at all.
	Run(ctx context.Context, host Host, command string) (*CommandResult, error)
}

// Copier copies a single file between two named hosts. Failure is
// reported, never retried internally.
type Copier interface {
	CopyFile(ctx context.Context, src Host, srcPath string, dst Host, dstPath string) error
}

// Prompter obtains one integer selection from an enumerated list. The
// terminal implementation blocks on operator input; tests use a
// scripted source.
type Prompter interface {
	// Pick presents the options with 1-based indices and returns the
	// zero-based index of the choice. An out-of-range or non-integer
	// response is an error; there is no retry loop.
	Pick(prompt string, options []string) (int, error)
}

// ProgressReporter receives progress updates during the copy stage.
type ProgressReporter interface {
	// Start signals the beginning of the copy stage
	Start(total int64, message string)

	// Update reports progress
	Update(done int64, message string)

	// Complete signals successful completion
	Complete(message string)

	// Error reports an error
	Error(err error)
}
