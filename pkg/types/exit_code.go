// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

// ExitCode is the process exit status of a loaddeps invocation.
type ExitCode int

const (
	// ExitSuccess means every attempted reload succeeded, or nothing was selected.
	ExitSuccess ExitCode = 0
	// ExitReloadFailed means at least one reload attempt failed and was reported.
	ExitReloadFailed ExitCode = 1
	// ExitFatal means the invocation aborted before or during closure resolution
	// (unreadable solution, malformed manifest, invalid configuration).
	ExitFatal ExitCode = 2
)

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// String returns the decimal form of c.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
