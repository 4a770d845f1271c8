package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// mediaPayload builds the common request body for media endpoints
func mediaPayload(cmd *cobra.Command, url string) map[string]interface{} {
	payload := map[string]interface{}{"url": url}
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		payload["source"] = source
	}
	return payload
}

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Probe duration, dimensions and codec of remote media",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var info domain.VideoInfo
		printed, err := callJSON(http.MethodPost, "/api/v1/media/probe", mediaPayload(cmd, args[0]), &info, http.StatusOK)
		if err != nil || printed {
			return err
		}

		fmt.Println("Media Info:")
		fmt.Printf("  Duration:   %.2fs\n", info.Duration)
		fmt.Printf("  Dimensions: %dx%d\n", info.Width, info.Height)
		fmt.Printf("  Codec:      %s\n", info.Codec)
		fmt.Printf("  Format:     %s\n", info.Format)
		if info.Bitrate > 0 {
			fmt.Printf("  Bitrate:    %s/s\n", humanize.Bytes(uint64(info.Bitrate/8)))
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Resolve a page URL to its direct media URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result struct {
			URL      string `json:"url"`
			Resolved string `json:"resolved"`
		}
		printed, err := callJSON(http.MethodPost, "/api/v1/media/resolve", mediaPayload(cmd, args[0]), &result, http.StatusOK)
		if err != nil || printed {
			return err
		}
		fmt.Println(result.Resolved)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [url]",
	Short: "Classify a URL without fetching it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result app.Classification
		printed, err := callJSON(http.MethodPost, "/api/v1/media/classify", mediaPayload(cmd, args[0]), &result, http.StatusOK)
		if err != nil || printed {
			return err
		}

		fmt.Println("Classification:")
		fmt.Printf("  Domain:       %s\n", result.Domain)
		fmt.Printf("  Extension:    %s\n", result.Extension)
		fmt.Printf("  Video:        %t\n", result.IsVideo)
		fmt.Printf("  Static image: %t\n", result.IsStaticImage)
		fmt.Printf("  Convert:      %t\n", result.ShouldConvertToGif)
		if result.PreviewURL != "" {
			fmt.Printf("  Preview:      %s\n", result.PreviewURL)
		}
		return nil
	},
}

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail [url]",
	Short: "Extract a JPEG thumbnail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		timestamp, _ := cmd.Flags().GetFloat64("timestamp")
		output, _ := cmd.Flags().GetString("output")

		payload := mediaPayload(cmd, args[0])
		payload["timestamp"] = timestamp

		data, header, err := call(http.MethodPost, "/api/v1/media/thumbnail", payload, http.StatusOK)
		if err != nil {
			return err
		}
		if err := writeFile(output, data); err != nil {
			return err
		}
		fmt.Printf("Thumbnail saved to %s (%s, strategy %s)\n",
			output, humanize.Bytes(uint64(len(data))), header.Get("X-Media-Strategy"))
		return nil
	},
}

var colorCmd = &cobra.Command{
	Use:   "color [url]",
	Short: "Extract the dominant color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result app.ColorResult
		printed, err := callJSON(http.MethodPost, "/api/v1/media/color", mediaPayload(cmd, args[0]), &result, http.StatusOK)
		if err != nil || printed {
			return err
		}
		// Truecolor swatch followed by the hex value
		fmt.Printf("\x1b[48;2;%d;%d;%dm    \x1b[0m %s (%d, %d, %d)\n",
			result.R, result.G, result.B, result.Hex, result.R, result.G, result.B)
		return nil
	},
}

var gifCmd = &cobra.Command{
	Use:   "gif [url]",
	Short: "Convert a video clip to a GIF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		output, _ := cmd.Flags().GetString("output")
		smart, _ := cmd.Flags().GetBool("smart")
		preview, _ := cmd.Flags().GetBool("preview")

		payload := mediaPayload(cmd, args[0])
		payload["smart"] = smart
		payload["preview"] = preview
		for _, name := range []string{"start", "duration"} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetFloat64(name)
				payload[name] = v
			}
		}
		for _, name := range []string{"width", "height", "fps"} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetInt(name)
				payload[name] = v
			}
		}

		data, header, err := call(http.MethodPost, "/api/v1/media/gif", payload, http.StatusOK)
		if err != nil {
			return err
		}
		if err := writeFile(output, data); err != nil {
			return err
		}

		width, _ := strconv.Atoi(header.Get("X-Gif-Width"))
		height, _ := strconv.Atoi(header.Get("X-Gif-Height"))
		fmt.Printf("GIF saved to %s (%s, %dx%d @ %s fps)\n",
			output, humanize.Bytes(uint64(len(data))), width, height, header.Get("X-Gif-FPS"))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{probeCmd, resolveCmd, classifyCmd, thumbnailCmd, colorCmd, gifCmd} {
		c.Flags().String("source", "", "Source key used for per-source bookkeeping")
	}

	thumbnailCmd.Flags().Float64P("timestamp", "t", 0, "Frame timestamp in seconds")
	thumbnailCmd.Flags().StringP("output", "o", "thumbnail.jpg", "Output file")

	gifCmd.Flags().StringP("output", "o", "output.gif", "Output file")
	gifCmd.Flags().Bool("smart", false, "Pick clip and size from the media itself")
	gifCmd.Flags().Bool("preview", false, "Short low-resolution preview")
	gifCmd.Flags().Float64("start", 0, "Clip start in seconds")
	gifCmd.Flags().Float64("duration", 0, "Clip duration in seconds")
	gifCmd.Flags().Int("width", 0, "Maximum width")
	gifCmd.Flags().Int("height", 0, "Maximum height")
	gifCmd.Flags().Int("fps", 0, "Frames per second")
	gifCmd.MarkFlagsMutuallyExclusive("smart", "preview")
}
