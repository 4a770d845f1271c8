package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/media-pipeline-go/internal/domain"
	"github.com/yourusername/media-pipeline-go/pkg/logger"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Inspect adaptive per-domain statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result struct {
			Count   int                  `json:"count"`
			Domains []domain.DomainStats `json:"domains"`
		}
		printed, err := callJSON(http.MethodGet, "/api/v1/domains", nil, &result, http.StatusOK)
		if err != nil || printed {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tDIRECT OK\tDIRECT FAIL\tDOWNLOAD OK\tSTRATEGY\tUPDATED")
		for _, s := range result.Domains {
			strategy := domain.StrategyDirect
			if s.PreferDownloadFirst {
				strategy = domain.StrategyDownloadFirst
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
				s.Domain,
				s.DirectSuccesses,
				s.DirectFailures,
				s.DownloadFirstSuccesses,
				strategy,
				humanize.Time(s.LastUpdated))
		}
		return w.Flush()
	},
}

var domainsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all per-domain statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		if _, _, err := call(http.MethodDelete, "/api/v1/domains", nil, http.StatusOK); err != nil {
			return err
		}
		fmt.Println("Domain statistics cleared")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (jobs, error)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		category := string(logger.CategoryJobs)
		if len(args) == 1 {
			category = args[0]
		}
		search, _ := cmd.Flags().GetString("search")
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		query.Set("limit", fmt.Sprint(limit))
		if date != "" {
			query.Set("date", date)
		}
		path := "/api/v1/logs/" + url.PathEscape(category)
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		printed, err := callJSON(http.MethodGet, path+"?"+query.Encode(), nil, &result, http.StatusOK)
		if err != nil || printed {
			return err
		}

		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	domainsCmd.AddCommand(domainsResetCmd)

	logsCmd.Flags().StringP("search", "q", "", "Only entries containing this text")
	logsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD, default today)")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum entries")
}
