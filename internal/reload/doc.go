// SPDX-License-Identifier: MPL-2.0

// Package reload implements the bulk reload of a selected project together with
// its transitive project-reference closure.
//
// The Orchestrator reads the host's current selection, resolves the reference
// closure of the selected manifest, maps every closure member to a live project
// identity and reloads the selected project followed by each dependency. Each
// reload attempt is isolated: a failure is flattened into text, recorded
// against the item and the sequence continues. When any attempt fails the
// aggregated report is written to the failure log and a single notice is shown.
//
// All host interaction goes through narrow capability interfaces
// (SelectionSource, ProjectLookup, ReloadService, FailureLog, Notifier) that are
// injected through Dependencies.
package reload
