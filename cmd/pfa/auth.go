package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pfa/internal/models"
)

func (c *cli) loginCmd() *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Password == "" {
				pw, err := c.promptPassword("Password: ")
				if err != nil {
					return err
				}
				creds.Password = pw
			}
			if err := c.app.SignIn(cmd.Context(), creds); err != nil {
				return err
			}
			fmt.Fprintln(c.out, successStyle.Render("Signed in as "+strings.TrimSpace(creds.Email)))
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (prompted when empty)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				pw, err := c.promptPassword("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}
			account, err := c.app.SignUp(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, successStyle.Render("Account created for "+account.Email+", run pfa login"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when empty)")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Full name")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, successStyle.Render("Signed out"))
			return nil
		},
	}
}

// prompt writes label and reads one line of input.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password without echo when input is a terminal,
// and falls back to a plain line read otherwise.
func (c *cli) promptPassword(label string) (string, error) {
	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return c.prompt(label)
	}
	fmt.Fprint(c.out, label)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
