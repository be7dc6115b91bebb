// SPDX-License-Identifier: MPL-2.0

// Package closure computes the transitive set of project manifests reachable
// through project-reference declarations from a starting manifest.
//
// The walk is depth-first and pre-order: a referenced manifest becomes a
// member the first time it is seen and is parsed exactly once. The starting
// manifest is the recursion root and never a member of its own closure, even
// when a reference cycle leads back to it.
package closure
