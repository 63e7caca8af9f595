package main

import (
	"fmt"
	"os"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
