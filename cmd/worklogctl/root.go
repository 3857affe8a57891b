package main

import (
	"errors"
	"os"
	"time"

	"worklog/internal/client"
	"worklog/internal/worklog"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "worklogctl",
	Short: "Log work and read reports from a worklog server",
	Long: `worklogctl is a command-line client for the worklog API.

The server address and token come from --server/--token or the
WORKLOG_SERVER and WORKLOG_TOKEN environment variables. Get a token
with "worklogctl login".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("WORKLOG_SERVER", "http://localhost:8080"), "worklog server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("WORKLOG_TOKEN"), "bearer token")

	rootCmd.AddCommand(loginCmd, signupCmd, addCmd, dayCmd, summaryCmd, standupCmd, searchCmd, exportCmd, tagsCmd)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func apiClient() (*client.Client, error) {
	if authToken == "" {
		return nil, errors.New("no token: run worklogctl login or set WORKLOG_TOKEN")
	}
	return client.New(serverURL, authToken), nil
}

func today() string {
	return worklog.FormatDay(time.Now())
}
