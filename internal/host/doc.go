// SPDX-License-Identifier: MPL-2.0

// Package host provides a solution workspace backed by files on disk.
//
// A workspace is a Visual Studio solution (*.sln) optionally narrowed by a
// solution filter (*.slnf). Projects listed in the filter are loaded; the rest
// are unloaded. Without a filter every project counts as loaded. Reloading a
// project adds it to the filter and persists the filter atomically.
//
// Workspace implements the capabilities the reload orchestrator needs:
// selection, project lookup and project reload.
package host
