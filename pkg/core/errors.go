package core

import (
	"fmt"
)

// UnreachableError indicates a host or transport failure. Fatal, ends
// the run at the state it occurred; never retried by this layer.
type UnreachableError struct {
	Host Host
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("host %s unreachable: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func (e *UnreachableError) ExitCode() int {
	return ExitUnreachable
}

// ProfileNotFoundError indicates no qualifying profile, or no profile
// matching a supplied name, on a host.
type ProfileNotFoundError struct {
	Host Host
	Name string // empty when no candidate existed at all
}

func (e *ProfileNotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("no profile with save data found on %s", e.Host)
	}
	return fmt.Sprintf("no profile named %q found on %s", e.Name, e.Host)
}

func (e *ProfileNotFoundError) ExitCode() int {
	return ExitProfileNotFound
}

// AmbiguousSelectionError indicates multiple candidates in
// non-interactive mode, or an invalid operator selection.
type AmbiguousSelectionError struct {
	Host   Host
	Count  int
	Reason string
}

func (e *AmbiguousSelectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("selection on %s failed: %s", e.Host, e.Reason)
	}
	return fmt.Sprintf("%d profiles with save data on %s; name one or run interactively", e.Count, e.Host)
}

func (e *AmbiguousSelectionError) ExitCode() int {
	return ExitAmbiguous
}

// NoSourceFilesError indicates the selected source profile has no
// transferable files; there is nothing meaningful to copy.
type NoSourceFilesError struct {
	Host    Host
	Profile Profile
}

func (e *NoSourceFilesError) Error() string {
	return fmt.Sprintf("profile %q on %s has no transferable files", e.Profile.Name, e.Host)
}

func (e *NoSourceFilesError) ExitCode() int {
	return ExitNoSourceFiles
}

// VerificationFailedError indicates the post-copy destination check
// found nothing even though individual copies may have reported
// success. Surfaced distinctly from copy failure.
type VerificationFailedError struct {
	Host    Host
	Profile Profile
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("verification failed: no files found for profile %q on %s after copy", e.Profile.Name, e.Host)
}

func (e *VerificationFailedError) ExitCode() int {
	return ExitVerificationFailed
}

// PartialCopyError indicates one or more individual files failed to
// copy. Non-fatal: the run continues to verification, but the final
// report lists the failure count.
type PartialCopyError struct {
	Failed int
	Total  int
}

func (e *PartialCopyError) Error() string {
	return fmt.Sprintf("%d of %d files failed to copy", e.Failed, e.Total)
}

func (e *PartialCopyError) ExitCode() int {
	return ExitPartialCopy
}

// AuthError indicates credential material could not be assembled or was
// rejected.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) ExitCode() int {
	return ExitAuthError
}

// ConfigError indicates invalid or missing configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigError) ExitCode() int {
	return ExitConfigError
}

// ExitCoder is implemented by errors that map to a semantic exit code.
type ExitCoder interface {
	error
	ExitCode() int
}
