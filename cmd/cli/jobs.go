package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background media jobs",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a media job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		kind, _ := cmd.Flags().GetString("kind")
		source, _ := cmd.Flags().GetString("source")
		priority, _ := cmd.Flags().GetInt("priority")

		req := app.JobRequest{
			URL:      args[0],
			Kind:     domain.JobKind(kind),
			Source:   source,
			Priority: priority,
		}
		if req.Kind == domain.JobGif {
			params := &domain.GifParams{}
			params.Start, _ = cmd.Flags().GetFloat64("start")
			params.Duration, _ = cmd.Flags().GetFloat64("duration")
			params.Width, _ = cmd.Flags().GetInt("width")
			params.Height, _ = cmd.Flags().GetInt("height")
			req.Gif = params
		}

		var job domain.Job
		printed, err := callJSON(http.MethodPost, "/api/v1/jobs", req, &job, http.StatusCreated)
		if err != nil || printed {
			return err
		}
		fmt.Printf("Job queued successfully!\n")
		fmt.Printf("ID:     %s\n", job.ID)
		fmt.Printf("Kind:   %s\n", job.Kind)
		fmt.Printf("Status: %s\n", job.Status)
		return nil
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		query := url.Values{}
		for _, name := range []string{"status", "kind", "source"} {
			if v, _ := cmd.Flags().GetString(name); v != "" {
				query.Set(name, v)
			}
		}
		path := "/api/v1/jobs"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var jobs []domain.Job
		printed, err := callJSON(http.MethodGet, path, nil, &jobs, http.StatusOK)
		if err != nil || printed {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tSTATUS\tSOURCE\tURL\tCREATED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(j.ID, 8),
				j.Kind,
				j.Status,
				j.Source,
				truncate(j.URL, 40),
				humanize.Time(j.CreatedAt))
		}
		return w.Flush()
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show job details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var job domain.Job
		printed, err := callJSON(http.MethodGet, "/api/v1/jobs/"+url.PathEscape(args[0]), nil, &job, http.StatusOK)
		if err != nil || printed {
			return err
		}

		fmt.Printf("Job Details:\n")
		fmt.Printf("  ID:       %s\n", job.ID)
		fmt.Printf("  URL:      %s\n", job.URL)
		fmt.Printf("  Kind:     %s\n", job.Kind)
		fmt.Printf("  Source:   %s\n", job.Source)
		fmt.Printf("  Status:   %s\n", job.Status)
		fmt.Printf("  Retries:  %d\n", job.RetryCount)
		fmt.Printf("  Created:  %s\n", humanize.Time(job.CreatedAt))
		if job.CompletedAt != nil {
			fmt.Printf("  Finished: %s\n", humanize.Time(*job.CompletedAt))
		}
		if job.ResultPath != "" {
			fmt.Printf("  File:     %s\n", job.ResultPath)
		}
		if job.Metadata != "" {
			fmt.Printf("  Result:   %s\n", job.Metadata)
		}
		if job.ErrorMessage != "" {
			fmt.Printf("  Error:    %s (%s)\n", job.ErrorMessage, job.ErrorKind)
		}
		return nil
	},
}

var jobsResultCmd = &cobra.Command{
	Use:   "result [id]",
	Short: "Fetch the result of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		output, _ := cmd.Flags().GetString("output")
		data, header, err := call(http.MethodGet, "/api/v1/jobs/"+url.PathEscape(args[0])+"/result", nil, http.StatusOK)
		if err != nil {
			return err
		}
		if output == "" {
			if header.Get("Content-Type") == "image/gif" {
				return fmt.Errorf("job produced a file; pass --output to save it")
			}
			fmt.Println(string(data))
			return nil
		}
		if err := writeFile(output, data); err != nil {
			return err
		}
		fmt.Printf("Result saved to %s (%s)\n", output, humanize.Bytes(uint64(len(data))))
		return nil
	},
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var stats domain.JobStats
		printed, err := callJSON(http.MethodGet, "/api/v1/jobs/stats", nil, &stats, http.StatusOK)
		if err != nil || printed {
			return err
		}

		fmt.Println("Job Statistics:")
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Queued:     %d\n", stats.Queued)
		fmt.Printf("  Processing: %d\n", stats.Processing)
		fmt.Printf("  Completed:  %d\n", stats.Completed)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		fmt.Printf("  Cancelled:  %d\n", stats.Cancelled)
		for kind, n := range stats.ByKind {
			fmt.Printf("  %-11s %d\n", string(kind)+":", n)
		}
		return nil
	},
}

// jobAction posts to a job sub-resource and prints the new status
func jobAction(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ensureServer()

			var job domain.Job
			printed, err := callJSON(http.MethodPost, "/api/v1/jobs/"+url.PathEscape(args[0])+"/"+action, nil, &job, http.StatusOK)
			if err != nil || printed {
				return err
			}
			fmt.Printf("Job %s (status: %s)\n", done, job.Status)
			return nil
		},
	}
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a job and its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		if _, _, err := call(http.MethodDelete, "/api/v1/jobs/"+url.PathEscape(args[0]), nil, http.StatusOK); err != nil {
			return err
		}
		fmt.Println("Job deleted")
		return nil
	},
}

func init() {
	jobsAddCmd.Flags().StringP("kind", "k", string(domain.JobSmartGif), "Job kind (probe, color, gif, smart_gif, preview_gif)")
	jobsAddCmd.Flags().StringP("source", "s", "", "Source key")
	jobsAddCmd.Flags().IntP("priority", "p", 0, "Higher runs first")
	jobsAddCmd.Flags().Float64("start", 0, "Clip start in seconds (gif)")
	jobsAddCmd.Flags().Float64("duration", 0, "Clip duration in seconds (gif)")
	jobsAddCmd.Flags().Int("width", 0, "Maximum width (gif)")
	jobsAddCmd.Flags().Int("height", 0, "Maximum height (gif)")

	jobsListCmd.Flags().String("status", "", "Filter by status")
	jobsListCmd.Flags().String("kind", "", "Filter by kind")
	jobsListCmd.Flags().String("source", "", "Filter by source")

	jobsResultCmd.Flags().StringP("output", "o", "", "Save a file result here")

	jobsCmd.AddCommand(jobsAddCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsResultCmd)
	jobsCmd.AddCommand(jobsStatsCmd)
	jobsCmd.AddCommand(jobAction("cancel", "Cancel a queued or running job", "cancelled"))
	jobsCmd.AddCommand(jobAction("retry", "Retry a failed or cancelled job", "queued for retry"))
	jobsCmd.AddCommand(jobsDeleteCmd)
}
