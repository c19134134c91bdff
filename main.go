package main

import (
	"fmt"
	"os"

	"github.com/rahulcharvekar/reconciliation-service/cmd/configcmd"
	"github.com/rahulcharvekar/reconciliation-service/cmd/mt940"
	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
	"github.com/rahulcharvekar/reconciliation-service/cmd/runs"
	"github.com/rahulcharvekar/reconciliation-service/cmd/serve"
	"github.com/rahulcharvekar/reconciliation-service/cmd/van"
	"github.com/rahulcharvekar/reconciliation-service/internal/config"
)

func init() {
	// .env must be loaded before viper reads the environment.
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	root.Init()

	root.Cmd.AddCommand(mt940.Cmd)
	root.Cmd.AddCommand(van.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(runs.Cmd)
	root.Cmd.AddCommand(configcmd.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
