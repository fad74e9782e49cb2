// The main package for the pickupcheck executable.
package main

import (
	_ "time/tzdata"

	"github.com/JakeFAU/pickup-checker/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
