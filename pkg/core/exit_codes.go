package core

import "errors"

// Exit codes for semantic error handling
// These codes help scripts and wrappers understand error types
const (
	// ExitSuccess indicates successful completion, including a
	// completed dry run
	ExitSuccess = 0

	// ExitGeneralError indicates a general error
	ExitGeneralError = 1

	// ExitConfigError indicates configuration error (invalid config, missing fields)
	ExitConfigError = 10

	// ExitAuthError indicates authentication failure
	ExitAuthError = 11

	// ExitUnreachable indicates a host or transport failure
	ExitUnreachable = 12

	// ExitProfileNotFound indicates no qualifying or matching profile
	ExitProfileNotFound = 20

	// ExitNoSourceFiles indicates the selected source profile has no
	// transferable files
	ExitNoSourceFiles = 24

	// ExitAmbiguous indicates multiple candidates in non-interactive
	// mode or an invalid operator selection
	ExitAmbiguous = 25

	// ExitVerificationFailed indicates the post-copy destination check
	// found nothing
	ExitVerificationFailed = 31

	// ExitPartialCopy indicates some individual files failed to copy
	ExitPartialCopy = 32
)

// ErrorCategory classifies errors for operator decision-making
type ErrorCategory string

const (
	// CategoryFatal errors cannot be retried without fixing the issue
	CategoryFatal ErrorCategory = "fatal"

	// CategoryConfiguration errors require config changes
	CategoryConfiguration ErrorCategory = "configuration"

	// CategoryAuth errors require authentication changes
	CategoryAuth ErrorCategory = "auth"

	// CategoryConnectivity errors may clear on operator re-invocation
	CategoryConnectivity ErrorCategory = "connectivity"

	// CategoryPartial errors completed some of the work
	CategoryPartial ErrorCategory = "partial"
)

// ExitCodeInfo provides metadata about exit codes
type ExitCodeInfo struct {
	Code        int
	Category    ErrorCategory
	Description string
	Suggestion  string
}

// ExitCodeRegistry maps exit codes to their metadata
var ExitCodeRegistry = map[int]ExitCodeInfo{
	ExitSuccess: {
		Code:        ExitSuccess,
		Description: "Run completed successfully",
	},
	ExitConfigError: {
		Code:        ExitConfigError,
		Category:    CategoryConfiguration,
		Description: "Configuration error",
		Suggestion:  "Check config file syntax and required fields",
	},
	ExitAuthError: {
		Code:        ExitAuthError,
		Category:    CategoryAuth,
		Description: "Authentication failed",
		Suggestion:  "Verify SSH credentials and key permissions",
	},
	ExitUnreachable: {
		Code:        ExitUnreachable,
		Category:    CategoryConnectivity,
		Description: "Host unreachable",
		Suggestion:  "Check host address, port and network connectivity, then re-invoke",
	},
	ExitProfileNotFound: {
		Code:        ExitProfileNotFound,
		Category:    CategoryFatal,
		Description: "No qualifying or matching profile",
		Suggestion:  "Run with --list to see discovered profiles",
	},
	ExitNoSourceFiles: {
		Code:        ExitNoSourceFiles,
		Category:    CategoryFatal,
		Description: "Selected source profile has no transferable files",
		Suggestion:  "Verify the application id and library path",
	},
	ExitAmbiguous: {
		Code:        ExitAmbiguous,
		Category:    CategoryFatal,
		Description: "Profile selection ambiguous or invalid",
		Suggestion:  "Name a profile with --source-user/--dest-user or run interactively",
	},
	ExitVerificationFailed: {
		Code:        ExitVerificationFailed,
		Category:    CategoryFatal,
		Description: "Destination verification found no files after copy",
		Suggestion:  "Check destination path writability and re-invoke",
	},
	ExitPartialCopy: {
		Code:        ExitPartialCopy,
		Category:    CategoryPartial,
		Description: "Some files failed to copy",
		Suggestion:  "Review failed paths in the report and re-invoke",
	},
}

// GetExitCodeInfo retrieves metadata for an exit code
func GetExitCodeInfo(code int) ExitCodeInfo {
	if info, exists := ExitCodeRegistry[code]; exists {
		return info
	}
	return ExitCodeInfo{
		Code:        code,
		Category:    CategoryFatal,
		Description: "Unknown error",
		Suggestion:  "Check output for details",
	}
}

// ExitCodeFor maps an error to its semantic exit code. Errors that do
// not implement ExitCoder map to the general error code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitGeneralError
}
