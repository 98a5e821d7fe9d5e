// Command letterpress serves the letterpress HTTP API and renders drafts from
// the command line.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	envFile string
)

func main() {
	root := &cobra.Command{
		Use:          "letterpress",
		Short:        "Compose greeting, body, closing and signature into email-ready text",
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd())
	root.AddCommand(composeCmd())
	root.AddCommand(migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
