// Package main is the entry point for the paragraf CLI.
package main

import (
	"fmt"
	"os"

	"github.com/paragraf-search/paragraf/cmd/paragraf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
