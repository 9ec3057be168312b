package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fastertools/spin-loader/internal/cli"
)

// Version information set at build time
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// SPIN_* settings may come from a .env file in the working directory
	_ = godotenv.Load()

	cli.SetVersion(version, commit, buildDate)

	if err := cli.Execute(); err != nil {
		cli.Error("%v", err)
		os.Exit(1)
	}
}
