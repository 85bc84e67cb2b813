package main

import (
	"github.com/spf13/cobra"

	"pfa/internal/handlers"
	"pfa/internal/logger"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front on PORT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router := handlers.NewRouter(c.app)
			port := c.app.Config.Port
			logger.Get().Infof("Starting pfa web front on port %s", port)
			return router.Run(":" + port)
		},
	}
}
