package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gradpath/gradpath-engine/pkg/cli"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := cli.Execute(Version); err != nil {
		os.Exit(1)
	}
}
