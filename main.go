// ./main.go
package main

import (
	"github.com/xkilldash9x/website2html/cmd"
)

// main is the entry point for the website2html CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
