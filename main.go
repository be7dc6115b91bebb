// SPDX-License-Identifier: MPL-2.0

// Command loaddeps reloads a project together with every project it
// references, transitively.
package main

import cmd "github.com/loaddeps/loaddeps/cmd/loaddeps"

func main() {
	cmd.Execute()
}
