// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Host operation status codes. Every status other than StatusOK is converted
// into a *HostOperationError by CheckStatus.
const (
	StatusOK Status = iota
	StatusProjectNotFound
	StatusManifestUnavailable
	StatusFilterWriteFailed
	StatusClosed
)

// ErrHostOperation is matched by every *HostOperationError.
var ErrHostOperation = errors.New("host operation failed")

type (
	// Status is the result code of a workspace operation.
	Status int

	// HostOperationError reports a workspace operation that returned a
	// non-success status.
	HostOperationError struct {
		Status  Status
		Project uuid.UUID
		Cause   error
	}
)

// CheckStatus converts a status into an error. StatusOK yields nil.
func CheckStatus(status Status, project uuid.UUID, cause error) error {
	if status == StatusOK {
		return nil
	}
	return &HostOperationError{Status: status, Project: project, Cause: cause}
}

// String returns the human-readable status text.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusProjectNotFound:
		return "project not found in solution"
	case StatusManifestUnavailable:
		return "project manifest unavailable"
	case StatusFilterWriteFailed:
		return "solution filter could not be written"
	case StatusClosed:
		return "workspace is closed"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// Error implements the error interface.
func (e *HostOperationError) Error() string {
	msg := fmt.Sprintf("project {%s}: %s", e.Project, e.Status)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *HostOperationError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrHostOperation.
func (e *HostOperationError) Is(target error) bool { return target == ErrHostOperation }

// HasStatus reports whether err is a *HostOperationError with the given status.
func HasStatus(err error, status Status) bool {
	var opErr *HostOperationError
	return errors.As(err, &opErr) && opErr.Status == status
}
