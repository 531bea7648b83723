// Package main is the entry point for the goldtest CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/goldtest/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
