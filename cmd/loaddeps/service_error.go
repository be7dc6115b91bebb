// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/loaddeps/loaddeps/internal/closure"
	"github.com/loaddeps/loaddeps/internal/dag"
	"github.com/loaddeps/loaddeps/internal/host"
	"github.com/loaddeps/loaddeps/internal/issue"
	"github.com/loaddeps/loaddeps/internal/reload"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a fatal error to the issue catalog entry that explains it.
// It returns 0 when no entry applies. Order matters: a missing manifest is a
// manifest problem even though it also wraps os.ErrNotExist.
func classifyError(err error) issue.Id {
	var cycle *dag.CycleError
	switch {
	case err == nil:
		return 0
	case closure.IsParseError(err):
		return issue.ManifestParseErrorId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case host.HasStatus(err, host.StatusProjectNotFound), errors.Is(err, reload.ErrUnresolvedSelection):
		return issue.ProjectNotFoundId
	case errors.Is(err, host.ErrInvalidSolution), errors.Is(err, host.ErrInvalidFilter):
		return issue.SolutionParseErrorId
	case host.IsNotExist(err), errors.Is(err, host.ErrAmbiguousSolution):
		return issue.SolutionNotFoundId
	case errors.As(err, &cycle):
		return issue.DependencyCycleId
	default:
		return 0
	}
}

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the optional issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	renderIssue(stderr, svcErr.IssueID, style)
}

func renderIssue(w io.Writer, id issue.Id, style string) {
	catalogEntry := issue.Get(id)
	if catalogEntry == nil {
		return
	}
	rendered, err := catalogEntry.Render(style)
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	if verboseMode {
		return reload.Flatten(err)
	}
	return err.Error()
}
