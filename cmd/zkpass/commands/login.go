package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"zkpass/internal/domain"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an OAuth identity token",
	}
	cmd.AddCommand(loginBeginCmd(), loginCompleteCmd())
	return cmd
}

func loginBeginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "begin",
		Short: "Create an ephemeral key and print the OAuth URL to open",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := wire.Login.Begin(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Printf("Open this URL to log in:\n%s\n\nValid until epoch %d.\n", p.AuthURL, p.MaxEpoch)
			return nil
		},
	}
}

func loginCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <callback-url|id-token>",
		Short: "Finish the login with the redirect URL or the raw identity token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := wire.Login.Complete(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("%s", domain.UserMessage(err))
			}
			if sess.DerivedAddress == nil {
				fmt.Println("Logged in. Address could not be derived.")
				return nil
			}
			fmt.Printf("Logged in as %s\n", *sess.DerivedAddress)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Login.Logout(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
