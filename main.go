// Idiomatic entrypoint for the Cobra CLI; delegates to the root
// command defined in cmd/root.go.

package main

import (
	"github.com/blockcast/blockcast/cmd"
)

func main() {
	cmd.Execute()
}
