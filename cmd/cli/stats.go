package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// statsCmd reports aggregate usage counters for a single user.
var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show download and event counters for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		stats, err := apiClient(cmd).UserStats(cmd.Context(), userID)
		if err != nil {
			return err
		}

		fmt.Printf("user:      %d\n", userID)
		fmt.Printf("downloads: %d\n", stats.Downloads)
		fmt.Printf("events:    %d\n", stats.Events)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
