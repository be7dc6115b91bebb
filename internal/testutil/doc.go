// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail the test on error instead of
// returning it: file and directory setup (MustWriteFile, MustMkdirAll), home
// directory isolation (SetHomeDir), and on-disk fixtures for project
// manifests, solution files and solution filters (WriteManifest,
// WriteSolution, WriteFilter).
package testutil
