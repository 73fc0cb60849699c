package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipgate/clipgate/sdk/go/clipgate"
)

// rootCmd represents the base command when the `clipgate-admin` binary is called
// without any subcommands. It provides the entry point for the entire CLI application.
var rootCmd = &cobra.Command{
	Use:   "clipgate-admin",
	Short: "A CLI tool for administering a running clipgate service.",
	Long: `clipgate-admin is a command-line interface for performing administrative
tasks against the clipgate HTTP API, such as inspecting per-user usage,
resolving download link tokens, and previewing media URLs.`,
}

// Execute is the main entry point for the CLI application.
// It adds all child commands to the root command, parses the command-line arguments,
// and executes the appropriate command. If an error occurs, it prints the error and exits.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// apiClient builds an SDK client from the shared --addr flag.
func apiClient(cmd *cobra.Command) *clipgate.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return clipgate.NewClient(addr)
}

func init() {
	rootCmd.PersistentFlags().String("addr", "http://localhost:8080", "Base URL of the clipgate API")
}
