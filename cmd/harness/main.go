package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	err := rootCmd.Execute()
	if closeLogger != nil {
		closeLogger()
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
