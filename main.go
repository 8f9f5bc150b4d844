// Package main is the entry point for bpsniff.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/bpsniff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
