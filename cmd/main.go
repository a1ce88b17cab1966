package main

import (
	"os"

	"github.com/heywon01/math-quiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
