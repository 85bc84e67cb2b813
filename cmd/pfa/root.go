package main

import (
	"github.com/spf13/cobra"

	apperrors "pfa/internal/errors"
)

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pfa",
		Short:         "Personal finance client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.app != nil {
				return nil
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Show help when no subcommand is provided
			return cmd.Help()
		},
	}
	root.SetOut(c.out)
	root.SetIn(c.in)

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.listCmd(),
		c.addCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.importCmd(),
		c.categoriesCmd(),
		c.summaryCmd(),
		c.serveCmd(),
	)
	return root
}

// requireSession fails early when nobody is signed in, before any request
// is made.
func (c *cli) requireSession() error {
	if !c.app.Session.Authenticated() {
		return apperrors.ErrNotLoggedIn
	}
	return nil
}

// flushNotices prints and clears pending notices.
func (c *cli) flushNotices() {
	for _, n := range c.app.Workspace.Notices.Drain() {
		printNotice(c.out, n)
	}
}
