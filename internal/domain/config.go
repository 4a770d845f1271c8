package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	Gif       GifConfig       `mapstructure:"gif"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Adaptive  AdaptiveConfig  `mapstructure:"adaptive"`
	Resolvers ResolverConfig  `mapstructure:"resolvers"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// FFmpegConfig contains external tool configuration
type FFmpegConfig struct {
	FFmpegBinary     string        `mapstructure:"ffmpeg_binary"`
	FFprobeBinary    string        `mapstructure:"ffprobe_binary"`
	Workers          int           `mapstructure:"workers"` // 0 means derive from GOMAXPROCS
	DefaultTimeout   time.Duration `mapstructure:"default_timeout"`
	GifTimeout       time.Duration `mapstructure:"gif_timeout"`
	ThumbnailTimeout time.Duration `mapstructure:"thumbnail_timeout"`
	VideoInfoTimeout time.Duration `mapstructure:"video_info_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	AdaptiveDownload bool          `mapstructure:"adaptive_download"`
	TempDir          string        `mapstructure:"temp_dir"`
}

// GifConfig contains GIF creation defaults
type GifConfig struct {
	Width                 int     `mapstructure:"width"`
	Height                int     `mapstructure:"height"`
	FPS                   int     `mapstructure:"fps"`
	MaxDuration           float64 `mapstructure:"max_duration"` // seconds
	MaxUploadSize         int64   `mapstructure:"max_upload_size"`
	MaxUploadSizePremium  int64   `mapstructure:"max_upload_size_premium"`
	UsePremiumUploadLimit bool    `mapstructure:"use_premium_upload_limit"`
}

// ThumbnailConfig contains thumbnail defaults
type ThumbnailConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// HTTPConfig contains settings for remote fetches and ffmpeg input headers
type HTTPConfig struct {
	UserAgent       string            `mapstructure:"user_agent"`
	ConnectTimeout  time.Duration     `mapstructure:"connect_timeout"`
	ReadTimeout     time.Duration     `mapstructure:"read_timeout"`
	DownloadTimeout time.Duration     `mapstructure:"download_timeout"`
	MaxDownloadSize int64             `mapstructure:"max_download_size"`
	Headers         map[string]string `mapstructure:"headers"`
}

// AdaptiveConfig tunes per-domain strategy selection
type AdaptiveConfig struct {
	MinSampleSize     int     `mapstructure:"min_sample_size"`
	FailureRatio      float64 `mapstructure:"failure_ratio"`
	MaxTrackedDomains int     `mapstructure:"max_tracked_domains"`
}

// ResolverConfig contains platform resolver settings
type ResolverConfig struct {
	RedGifsEnabled   bool     `mapstructure:"redgifs_enabled"`
	RedGifsAPIBase   string   `mapstructure:"redgifs_api_base"`
	RedGifsRateLimit float64  `mapstructure:"redgifs_rate_limit"` // requests per second
	ImgurEnabled     bool     `mapstructure:"imgur_enabled"`
	OpenGraphEnabled bool     `mapstructure:"opengraph_enabled"`
	OpenGraphHosts   []string `mapstructure:"opengraph_hosts"`
}

// QueueConfig contains job queue configuration
type QueueConfig struct {
	DatabasePath     string        `mapstructure:"database_path"`
	OutputDir        string        `mapstructure:"output_dir"`
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	ConcurrentLimit  int           `mapstructure:"concurrent_limit"`
	TempFileMaxAge   time.Duration `mapstructure:"temp_file_max_age"`
	AutoStartWorkers bool          `mapstructure:"auto_start_workers"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // category log files
}

// DefaultUserAgent is sent with every remote request and ffmpeg input
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		FFmpeg: FFmpegConfig{
			FFmpegBinary:     "ffmpeg",
			FFprobeBinary:    "ffprobe",
			Workers:          0,
			DefaultTimeout:   15 * time.Second,
			GifTimeout:       60 * time.Second,
			ThumbnailTimeout: 10 * time.Second,
			VideoInfoTimeout: 8 * time.Second,
			MaxRetries:       2,
			RetryDelay:       500 * time.Millisecond,
			AdaptiveDownload: true,
			TempDir:          "$HOME/.media-pipeline/temp",
		},
		Gif: GifConfig{
			Width:                480,
			Height:               270,
			FPS:                  10,
			MaxDuration:          20,
			MaxUploadSize:        25 * 1024 * 1024,
			MaxUploadSizePremium: 500 * 1024 * 1024,
		},
		Thumbnail: ThumbnailConfig{
			Width:  320,
			Height: 320,
		},
		HTTP: HTTPConfig{
			UserAgent:       DefaultUserAgent,
			ConnectTimeout:  10 * time.Second,
			ReadTimeout:     30 * time.Second,
			DownloadTimeout: 30 * time.Second,
			MaxDownloadSize: 100 * 1024 * 1024,
			Headers:         map[string]string{},
		},
		Adaptive: AdaptiveConfig{
			MinSampleSize:     2,
			FailureRatio:      0.5,
			MaxTrackedDomains: 500,
		},
		Resolvers: ResolverConfig{
			RedGifsEnabled:   true,
			RedGifsAPIBase:   "https://api.redgifs.com",
			RedGifsRateLimit: 2,
			ImgurEnabled:     true,
			OpenGraphEnabled: true,
			OpenGraphHosts:   []string{"streamable.com"},
		},
		Queue: QueueConfig{
			DatabasePath:     "$HOME/.media-pipeline/jobs.db",
			OutputDir:        "$HOME/.media-pipeline/output",
			CheckInterval:    5 * time.Second,
			ConcurrentLimit:  2,
			TempFileMaxAge:   time.Hour,
			AutoStartWorkers: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.media-pipeline/logs",
		},
	}
}

// UploadLimit returns the GIF size ceiling currently in effect
func (c GifConfig) UploadLimit() int64 {
	if c.UsePremiumUploadLimit && c.MaxUploadSizePremium > 0 {
		return c.MaxUploadSizePremium
	}
	return c.MaxUploadSize
}
