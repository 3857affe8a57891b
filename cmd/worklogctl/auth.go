package main

import (
	"errors"
	"fmt"

	"worklog/internal/client"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Print a bearer token for an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printToken(cmd, false)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and print its bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printToken(cmd, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "account email")
		c.Flags().StringVar(&loginPassword, "password", "", "account password")
	}
}

func printToken(cmd *cobra.Command, signup bool) error {
	if loginEmail == "" || loginPassword == "" {
		return errors.New("--email and --password are required")
	}

	c := client.New(serverURL, "")
	login := c.Login
	if signup {
		login = c.Signup
	}
	token, err := login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
