package cmd

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the command tree. Each call returns fresh commands so
// tests can execute them in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "go-resolver",
		Short: "A dependency resolution container with a Laravel-style kernel",
		Long: `go-resolver wires services through a resolver-chain container.

Entries come from service providers, .env files and YAML definitions files;
the serve command exposes a demo HTTP application built on top of them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceP("env", "e", nil,
		"env files to load (default: .env when present)")

	root.AddCommand(newServeCmd(), newResolveCmd(), newListCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}

func envFiles(cmd *cobra.Command) []string {
	files, _ := cmd.Flags().GetStringSlice("env")
	return files
}
