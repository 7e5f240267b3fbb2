package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/parley/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		if serveAddr != "" {
			s.Cfg.Addr = serveAddr
		}
		s.RegisterRoutes()
		s.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}
