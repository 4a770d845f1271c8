package domain

import "fmt"

const (
	DefaultVideoWidth  = 480
	DefaultVideoHeight = 270
)

// VideoInfo holds probed media metadata
type VideoInfo struct {
	Duration float64 `json:"duration"` // seconds
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
	Format   string  `json:"format"`
	Bitrate  int64   `json:"bitrate"`
	Probed   bool    `json:"-"` // false when built from URL heuristics
}

// NewVideoInfo returns a VideoInfo populated with safe defaults
func NewVideoInfo() VideoInfo {
	return VideoInfo{
		Width:  DefaultVideoWidth,
		Height: DefaultVideoHeight,
		Codec:  "unknown",
		Format: "unknown",
	}
}

// HasVideo reports whether the media has usable dimensions
func (v VideoInfo) HasVideo() bool {
	return v.Width > 0 && v.Height > 0
}

// AspectRatio returns width/height, or 16:9 when unknown
func (v VideoInfo) AspectRatio() float64 {
	if !v.HasVideo() {
		return 16.0 / 9.0
	}
	return float64(v.Width) / float64(v.Height)
}

func (v VideoInfo) String() string {
	return fmt.Sprintf("%dx%d %.2fs %s/%s", v.Width, v.Height, v.Duration, v.Codec, v.Format)
}
