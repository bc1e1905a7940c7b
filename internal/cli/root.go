// Package cli provides the command-line interface for pqlc.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pqlc",
		Short:         "pqlc compiles PQL pipelines to SQL",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("pqlc {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pqlc.yaml)")
	rootCmd.PersistentFlags().StringP("target", "t", "", "target SQL dialect")
	rootCmd.PersistentFlags().Bool("signature", true, "prepend a generated-by comment")
	rootCmd.PersistentFlags().Bool("format", true, "pretty-print the generated SQL")
	rootCmd.PersistentFlags().String("display", "", "diagnostic display mode (plain|ansi)")
	rootCmd.PersistentFlags().String("cache-path", "", "compilation cache path")

	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewReplCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewVersionCommand reports build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pqlc %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}
