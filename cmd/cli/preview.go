package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// previewCmd exercises metadata extraction without admitting a download.
var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Extract media metadata for a URL and mint a link token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")

		preview, err := apiClient(cmd).Preview(cmd.Context(), userID, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("platform: %s\n", preview.Platform)
		if preview.Meta != nil {
			fmt.Printf("title:    %s\n", preview.Meta.Title)
			fmt.Printf("uploader: %s\n", preview.Meta.Uploader)
			fmt.Printf("duration: %ds\n", preview.Meta.DurationSeconds)
		}
		fmt.Printf("token:    %s\n", preview.Token)
		return nil
	},
}

func init() {
	previewCmd.Flags().Int64("user", 0, "Numeric user id to attribute the preview to")
	_ = previewCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(previewCmd)
}
