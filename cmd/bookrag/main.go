package main

import (
	"os"

	"github.com/bookrag/bookrag/internal/cli/bookrag"
)

func main() {
	if err := bookrag.Execute(); err != nil {
		os.Exit(1)
	}
}
