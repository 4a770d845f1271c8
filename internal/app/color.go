package app

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// Pixels with a mean channel value outside (minBrightness, maxBrightness)
// are letterboxing or blown highlights and are skipped.
const (
	minBrightness   = 30
	maxBrightness   = 225
	sampleGridSize  = 64
	saturationBoost = 1.3
	brightnessBoost = 1.1
)

// FallbackColor is returned when no frame yields a usable sample
var FallbackColor = color.RGBA{R: 0, G: 255, B: 255, A: 255}

// colorPositions are the fractions of the duration sampled for color
var colorPositions = []float64{0.25, 0.5, 0.75}

// ColorSample is the mean color of the usable pixels in one image
type ColorSample struct {
	R, G, B float64
	Pixels  int
}

// ExtractDominantColor samples frames at 25%, 50% and 75% of info.Duration
// and returns their boosted average color. It never fails.
func (p *ThumbnailProcessor) ExtractDominantColor(ctx context.Context, rawURL string, info domain.VideoInfo) color.RGBA {
	duration := info.Duration
	if duration <= 0 {
		duration = unknownDefaultDuration
	}
	timestamps := make([]float64, len(colorPositions))
	for i, pos := range colorPositions {
		timestamps[i] = duration * pos
	}

	var samples []ColorSample
	for _, frame := range p.ExtractMultipleThumbnails(ctx, rawURL, timestamps) {
		if frame.Success {
			samples = append(samples, AverageColor(frame.Data))
		}
	}

	c, ok := CombineColorSamples(samples)
	if !ok {
		p.logger.Debug("No usable color samples, using fallback", zap.String("url", rawURL))
		return FallbackColor
	}
	return BoostColor(c)
}

// AverageColor averages a grid of at most sampleGridSize x sampleGridSize
// pixels, skipping near-black and near-white ones
func AverageColor(img image.Image) ColorSample {
	var sample ColorSample
	if img == nil {
		return sample
	}

	bounds := img.Bounds()
	stepX := max(1, bounds.Dx()/sampleGridSize)
	stepY := max(1, bounds.Dy()/sampleGridSize)

	var sumR, sumG, sumB float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			r8, g8, b8 := float64(r>>8), float64(g>>8), float64(b>>8)
			brightness := (r8 + g8 + b8) / 3
			if brightness <= minBrightness || brightness >= maxBrightness {
				continue
			}
			sumR += r8
			sumG += g8
			sumB += b8
			sample.Pixels++
		}
	}

	if sample.Pixels > 0 {
		n := float64(sample.Pixels)
		sample.R, sample.G, sample.B = sumR/n, sumG/n, sumB/n
	}
	return sample
}

// CombineColorSamples averages the per-frame means of samples that had at
// least one usable pixel
func CombineColorSamples(samples []ColorSample) (color.RGBA, bool) {
	var r, g, b float64
	frames := 0
	for _, s := range samples {
		if s.Pixels == 0 {
			continue
		}
		r += s.R
		g += s.G
		b += s.B
		frames++
	}
	if frames == 0 {
		return FallbackColor, false
	}
	n := float64(frames)
	return color.RGBA{R: clampChannel(r / n), G: clampChannel(g / n), B: clampChannel(b / n), A: 255}, true
}

// BoostColor raises saturation and brightness slightly in HSV space
func BoostColor(c color.RGBA) color.RGBA {
	cf, _ := colorful.MakeColor(c)
	h, s, v := cf.Hsv()
	boosted := colorful.Hsv(h, math.Min(1, s*saturationBoost), math.Min(1, v*brightnessBoost)).Clamped()
	r, g, b := boosted.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ColorHex renders c as #rrggbb
func ColorHex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	return cf.Hex()
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
