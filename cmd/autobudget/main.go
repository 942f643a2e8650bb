package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/autobudget-dev/autobudget/internal/commands"
)

func main() {
	// Optional .env for AUTOBUDGET_CONFIG and friends; absence is fine.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
