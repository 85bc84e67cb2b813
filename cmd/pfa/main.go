// @title           pfa web front
// @version         1.0
// @description     Local web front of the pfa personal finance client. Routes other than auth and health require a signed-in session.

// @host      localhost:5173
// @BasePath  /api
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pfa/internal/app"
	"pfa/internal/config"
	"pfa/internal/logger"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))

	err := run()
	if err != nil {
		printError(os.Stderr, err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(openApp, os.Stdout, os.Stdin)
	defer c.close()
	return c.rootCmd().ExecuteContext(ctx)
}

// openApp loads configuration and opens the saved session.
func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.Open(cfg)
}

// cli holds the state shared by every command of one invocation.
type cli struct {
	open func() (*app.App, error)
	out  io.Writer
	in   io.Reader
	app  *app.App
}

func newCLI(open func() (*app.App, error), out io.Writer, in io.Reader) *cli {
	return &cli{open: open, out: out, in: in}
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		logger.Get().Warnw("closing session store failed", "error", err)
	}
	c.app = nil
}
