package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cashbook-cli",
		Short: "Cashbook CLI tool",
		Long:  `A command line interface for interacting with the cashbook API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the cashbook API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "snapshot",
			Short: "Print the current day's state",
			Run: func(cmd *cobra.Command, args []string) {
				get("/api/v1/snapshot")
			},
		},
		&cobra.Command{
			Use:   "totals",
			Short: "Print the derived totals",
			Run: func(cmd *cobra.Command, args []string) {
				get("/api/v1/totals")
			},
		},
		&cobra.Command{
			Use:   "archive",
			Short: "List closed days, newest first",
			Run: func(cmd *cobra.Command, args []string) {
				get("/api/v1/archive")
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show device role and sync state",
			Run: func(cmd *cobra.Command, args []string) {
				get("/api/v1/status")
			},
		},
		&cobra.Command{
			Use:   "dayend",
			Short: "Close the current day and open the next one",
			Run: func(cmd *cobra.Command, args []string) {
				send("POST", "/api/v1/dayend", nil)
			},
		},
		&cobra.Command{
			Use:       "role [writer|observer]",
			Short:     "Switch the device role",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"writer", "observer"},
			Run: func(cmd *cobra.Command, args []string) {
				send("PUT", "/api/v1/role", map[string]bool{"writer": args[0] == "writer"})
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newClient() *resty.Client {
	return resty.New().SetBaseURL(baseURL).SetTimeout(timeout)
}

func get(path string) {
	resp, err := newClient().R().Get(path)
	handleResponse(resp, err)
}

func send(method, path string, body any) {
	req := newClient().R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	handleResponse(resp, err)
}

func handleResponse(resp *resty.Response, err error) {
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}

	if resp.IsError() {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode(), resp.String())
		os.Exit(1)
	}

	var pretty any
	if jsonErr := json.Unmarshal(resp.Body(), &pretty); jsonErr != nil {
		fmt.Println(resp.String())
		return
	}

	printJSON(pretty)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(data))
}
