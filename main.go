package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"flowswap/cmd"
)

func main() {
	// A missing .env is fine; the API key can come from the real
	// environment or a config file, and without one the CLI degrades
	// to demo mode.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
