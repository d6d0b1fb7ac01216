package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"fap-client/internal/domain"
)

// Exit code constants
const (
	ExitSuccess      = 0
	ExitGeneral      = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitConfigError  = 4
	ExitNetworkError = 5
	ExitConflict     = 6
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

// Error implements the error interface, returning the summary
func (e *CLIError) Error() string {
	return e.Summary
}

// FromError converts a domain error into a CLIError. Errors that already are
// CLIErrors pass through unchanged.
func FromError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		e := &CLIError{Summary: authErr.Message, ExitCode: ExitAuthError}
		if authErr.Err != nil {
			e.Detail = authErr.Err.Error()
		}
		switch authErr.Kind {
		case domain.AuthKindValidation:
			e.ExitCode = ExitUsageError
		case domain.AuthKindInvalidCredentials, domain.AuthKindSession:
			e.Suggestion = "Run 'fapctl login' to sign in again"
		case domain.AuthKindNetwork, domain.AuthKindServer:
			e.ExitCode = ExitNetworkError
			e.Suggestion = "Check api.base_url with 'fapctl config' and retry"
		case domain.AuthKindConflict:
			e.ExitCode = ExitConflict
		}
		return e
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrSessionExpired):
		return &CLIError{
			Summary:    "not signed in",
			Detail:     err.Error(),
			Suggestion: "Run 'fapctl login' first",
			ExitCode:   ExitAuthError,
		}
	case errors.Is(err, domain.ErrNotConfirmed):
		return &CLIError{
			Summary:    "removal not confirmed",
			Suggestion: "Pass --yes to remove without prompting",
			ExitCode:   ExitUsageError,
		}
	case errors.Is(err, domain.ErrRelationshipConflict):
		return &CLIError{
			Summary:    "request not allowed",
			Detail:     err.Error(),
			Suggestion: "Run 'fapctl friends requests' to see current requests",
			ExitCode:   ExitConflict,
		}
	case errors.Is(err, domain.ErrProjectionUnavailable), domain.IsTransport(err):
		return &CLIError{
			Summary:    "relationship service unavailable",
			Detail:     err.Error(),
			Suggestion: "Check api.base_url with 'fapctl config' and retry",
			ExitCode:   ExitNetworkError,
		}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return &CLIError{
			Summary:    "session store unavailable",
			Detail:     err.Error(),
			Suggestion: "Check the store section with 'fapctl config'",
			ExitCode:   ExitConfigError,
		}
	}

	return &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
