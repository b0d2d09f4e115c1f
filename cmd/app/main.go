package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"trash-notify/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	return cmd.Execute()
}
