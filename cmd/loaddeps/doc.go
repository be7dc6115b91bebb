// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for loaddeps.
//
// The root command is executed through fang. Every command receives the App
// composition root, which loads configuration once per invocation and opens
// the solution workspace on demand. The watch command reruns a reload each time a
// project file or the solution changes.
package cmd
