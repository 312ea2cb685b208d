package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	Version   = "dev"
)

type systemStats struct {
	TotalTrackedTags int64 `json:"total_tracked_tags"`
	TotalVisits      int64 `json:"total_visits"`
	NewBadgesToday   int64 `json:"new_badges_today"`
}

type tagStats struct {
	Tag        string `json:"tag"`
	VisitCount int64  `json:"visit_count"`
	QueriedAt  int64  `json:"queried_at"`
}

type serverInfo struct {
	Version              string `json:"version"`
	Environment          string `json:"environment"`
	IdentityMode         string `json:"identity_mode"`
	RateLimitWindowHours int    `json:"rate_limit_window_hours"`
	RetentionDays        int    `json:"cleanup_retention_days"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "visitbadge",
		Short: "Visitbadge - visit-counting badge service",
		Long:  "Query visit counts and operational stats from a visitbadge server",
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Visitbadge server URL")

	rootCmd.AddCommand(
		statsCmd(),
		tagCmd(),
		infoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show system-wide visit statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats systemStats
			if err := fetchJSON("/v1/stats", &stats); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Tracked tags:\t%d\n", stats.TotalTrackedTags)
			fmt.Fprintf(w, "Total visits:\t%d\n", stats.TotalVisits)
			fmt.Fprintf(w, "New badges today:\t%d\n", stats.NewBadgesToday)
			return w.Flush()
		},
	}
}

func tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag [tag]",
		Short: "Show the visit count for a specific tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats tagStats
			path := "/v1/stats/tag?tag=" + url.QueryEscape(args[0])
			if err := fetchJSON(path, &stats); err != nil {
				return err
			}

			fmt.Printf("%s: %d visits (as of %s)\n",
				stats.Tag, stats.VisitCount, time.Unix(stats.QueriedAt, 0).Format(time.RFC3339))
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			var info serverInfo
			if err := fetchJSON("/v1/info", &info); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Server version:\t%s\n", info.Version)
			fmt.Fprintf(w, "Environment:\t%s\n", info.Environment)
			fmt.Fprintf(w, "Identity mode:\t%s\n", info.IdentityMode)
			fmt.Fprintf(w, "Dedup window:\t%dh\n", info.RateLimitWindowHours)
			fmt.Fprintf(w, "Retention:\t%dd\n", info.RetentionDays)
			return w.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("visitbadge %s\n", Version)
		},
	}
}

func fetchJSON(path string, out any) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
