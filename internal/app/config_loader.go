package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. MEDIAPIPE_FFMPEG_WORKERS
const EnvPrefix = "MEDIAPIPE"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.media-pipeline")
		v.AddConfigPath("/etc/media-pipeline")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every config key so AutomaticEnv overrides apply
// even when no config file sets them
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.host", "server.port",
		"ffmpeg.ffmpeg_binary", "ffmpeg.ffprobe_binary", "ffmpeg.workers",
		"ffmpeg.default_timeout", "ffmpeg.gif_timeout", "ffmpeg.thumbnail_timeout",
		"ffmpeg.video_info_timeout", "ffmpeg.max_retries", "ffmpeg.retry_delay",
		"ffmpeg.adaptive_download", "ffmpeg.temp_dir",
		"gif.width", "gif.height", "gif.fps", "gif.max_duration",
		"gif.max_upload_size", "gif.max_upload_size_premium", "gif.use_premium_upload_limit",
		"thumbnail.width", "thumbnail.height",
		"http.user_agent", "http.connect_timeout", "http.read_timeout",
		"http.download_timeout", "http.max_download_size",
		"adaptive.min_sample_size", "adaptive.failure_ratio", "adaptive.max_tracked_domains",
		"resolvers.redgifs_enabled", "resolvers.redgifs_api_base", "resolvers.redgifs_rate_limit",
		"resolvers.imgur_enabled", "resolvers.opengraph_enabled",
		"queue.database_path", "queue.output_dir", "queue.check_interval",
		"queue.concurrent_limit", "queue.temp_file_max_age", "queue.auto_start_workers",
		"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
	} {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.FFmpeg.TempDir = expandPath(config.FFmpeg.TempDir)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)
	config.Queue.OutputDir = expandPath(config.Queue.OutputDir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.FFmpeg.FFmpegBinary == "" || config.FFmpeg.FFprobeBinary == "" {
		return fmt.Errorf("ffmpeg and ffprobe binaries must be configured")
	}

	if config.FFmpeg.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if config.FFmpeg.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}

	if config.FFmpeg.TempDir == "" {
		return fmt.Errorf("temp directory not configured")
	}

	if config.Gif.Width <= 0 || config.Gif.Height <= 0 || config.Gif.FPS <= 0 {
		return fmt.Errorf("gif width, height and fps must be positive")
	}

	if config.Gif.MaxDuration <= 0 {
		return fmt.Errorf("gif max duration must be positive")
	}

	if config.Thumbnail.Width <= 0 || config.Thumbnail.Height <= 0 {
		return fmt.Errorf("thumbnail width and height must be positive")
	}

	if config.Adaptive.FailureRatio < 0 || config.Adaptive.FailureRatio > 1 {
		return fmt.Errorf("adaptive failure ratio must be within [0,1]: %v", config.Adaptive.FailureRatio)
	}

	if config.Queue.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Queue.CheckInterval <= 0 {
		return fmt.Errorf("queue check interval must be positive")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// configSections maps top-level keys to their sections, keyed by the
// mapstructure tags so a saved file loads back unchanged
func configSections(config *domain.Config) (map[string]interface{}, error) {
	sections := make(map[string]interface{})
	if err := mapstructure.Decode(config, &sections); err != nil {
		return nil, err
	}
	for key, section := range sections {
		fields := make(map[string]interface{})
		if err := mapstructure.Decode(section, &fields); err != nil {
			return nil, err
		}
		for name, value := range fields {
			if d, ok := value.(time.Duration); ok {
				fields[name] = d.String()
			}
		}
		sections[key] = fields
	}
	return sections, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	sections, err := configSections(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	for key, value := range sections {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
