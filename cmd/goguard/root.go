package main

import (
	"os"

	"github.com/spf13/cobra"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "goguard",
	Short:        "goGuard authentication service",
	Long:         `goGuard serves session, refresh and tenant-scoped authorization endpoints and carries its maintenance tooling.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files loaded before the GOGUARD_* variables (default .env when present)")
}
