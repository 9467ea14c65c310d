// Package main provides the storyflow CLI: a project tracking board with
// a backlog, document import, and an HTTP server mode.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
