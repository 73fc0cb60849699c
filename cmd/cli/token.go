package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resolveCmd looks up the URL behind a minted download link token.
var resolveCmd = &cobra.Command{
	Use:   "resolve <token>",
	Short: "Resolve a download link token to its original URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := apiClient(cmd).ResolveToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
