package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/container"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [id...]",
		Short: "Resolve container entries and print them as YAML",
		Long: `Resolve one or more entries through the full resolver chain and print
the results as a YAML mapping of id to value.

Examples:
  # Resolve entries of a definitions file
  go-resolver resolve --definitions container.yaml app.name features

  # Resolve an env entry
  go-resolver resolve -e .env env.APP_NAME`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("definitions"); path != "" {
				// the environment wins over env files
				if err := os.Setenv("CONTAINER_DEFINITIONS", path); err != nil {
					return err
				}
			}
			application, err := app.New(envFiles(cmd)...)
			if err != nil {
				return err
			}
			if err := application.Boot(); err != nil {
				return err
			}

			out := &yaml.Node{Kind: yaml.MappingNode}
			for _, id := range args {
				v, err := application.Get(id)
				if err != nil {
					return err
				}
				var value yaml.Node
				if err := value.Encode(printable(v)); err != nil {
					return fmt.Errorf("encode %s: %w", id, err)
				}
				out.Content = append(out.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: id}, &value)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringP("definitions", "d", "", "YAML definitions file (overrides CONTAINER_DEFINITIONS)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered entry ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(envFiles(cmd)...)
			if err != nil {
				return err
			}
			for _, id := range application.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// printable replaces values YAML cannot encode meaningfully with their type.
func printable(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, []any, map[string]any:
		return v
	case *container.Container:
		return "<container>"
	}
	return fmt.Sprintf("<%T>", v)
}
