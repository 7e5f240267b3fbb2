package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley real-time chat server",
	Long: `Parley is a real-time chat room service. Clients connect over a
WebSocket, claim a display name, join named rooms, and exchange broadcast
and private messages with presence and typing indicators.

Use "parley [command] --help" for more information about a specific command.`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
