package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. VIDEOCAPS_SERVER_PORT
const EnvPrefix = "VIDEOCAPS"

// Loader handles configuration loading and management
type Loader struct {
	configPath string
	envFile    string
	viper      *viper.Viper
}

// NewLoader creates a new configuration loader. An empty configPath searches
// $HOME, the working directory and /etc/videocaps for .videocaps.yaml.
func NewLoader(configPath string) *Loader {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/videocaps")
		v.SetConfigName(".videocaps")
		v.SetConfigType("yaml")
	}

	return &Loader{
		configPath: configPath,
		envFile:    ".env",
		viper:      v,
	}
}

// WithEnvFile sets the dotenv file read before the environment is consulted
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Viper exposes the underlying viper instance so that CLI flags can be bound to keys
func (l *Loader) Viper() *viper.Viper {
	return l.viper
}

// Load reads and returns the configuration
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	l.setDefaults()

	if err := l.viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and the environment still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile merges the dotenv file into the process environment without
// overriding variables that are already set
func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
	}
	return nil
}

// Save writes cfg to the loader's config file, or ~/.videocaps.yaml
func (l *Loader) Save(cfg *Config) error {
	configFile := l.configPath
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configFile = filepath.Join(home, ".videocaps.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	l.setFrom(cfg)

	if err := l.viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigFile returns the path to the config file being used
func (l *Loader) GetConfigFile() string {
	return l.viper.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.viper.SetDefault("server.host", d.Server.Host)
	l.viper.SetDefault("server.port", d.Server.Port)
	l.viper.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	l.viper.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	l.viper.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	l.viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	l.viper.SetDefault("editor.viewport_width", d.Editor.ViewportWidth)
	l.viper.SetDefault("editor.zoom", d.Editor.Zoom)
	l.viper.SetDefault("editor.tick_interval", d.Editor.TickInterval)
	l.viper.SetDefault("editor.show_waveform", d.Editor.ShowWaveform)

	l.viper.SetDefault("export.format", d.Export.Format)
	l.viper.SetDefault("export.include_speaker", d.Export.IncludeSpeaker)
	l.viper.SetDefault("export.clean", d.Export.Clean)
	l.viper.SetDefault("export.max_line_length", d.Export.MaxLineLength)
	l.viper.SetDefault("export.max_lines", d.Export.MaxLines)
	l.viper.SetDefault("export.language", d.Export.Language)
	l.viper.SetDefault("export.output_dir", d.Export.OutputDir)

	l.viper.SetDefault("media.ffmpeg_path", d.Media.FFmpegPath)
	l.viper.SetDefault("media.output_dir", d.Media.OutputDir)
	l.viper.SetDefault("media.temp_dir", d.Media.TempDir)
	l.viper.SetDefault("media.keep_temp_files", d.Media.KeepTempFiles)
	l.viper.SetDefault("media.sample_rate", d.Media.SampleRate)
	l.viper.SetDefault("media.channels", d.Media.Channels)

	l.viper.SetDefault("store.path", d.Store.Path)

	l.viper.SetDefault("watch.enabled", d.Watch.Enabled)
	l.viper.SetDefault("watch.stability_wait", d.Watch.StabilityWait)

	l.viper.SetDefault("logging.level", d.Logging.Level)
	l.viper.SetDefault("logging.format", d.Logging.Format)
	l.viper.SetDefault("logging.output", d.Logging.Output)
	l.viper.SetDefault("logging.timestamp", d.Logging.Timestamp)
	l.viper.SetDefault("logging.caller", d.Logging.Caller)
	l.viper.SetDefault("logging.no_color", d.Logging.NoColor)
}

func (l *Loader) setFrom(cfg *Config) {
	values := map[string]interface{}{
		"server.host":             cfg.Server.Host,
		"server.port":             cfg.Server.Port,
		"server.cors_origins":     cfg.Server.CORSOrigins,
		"server.read_timeout":     cfg.Server.ReadTimeout.String(),
		"server.write_timeout":    cfg.Server.WriteTimeout.String(),
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		"editor.viewport_width":   cfg.Editor.ViewportWidth,
		"editor.zoom":             cfg.Editor.Zoom,
		"editor.tick_interval":    cfg.Editor.TickInterval.String(),
		"editor.show_waveform":    cfg.Editor.ShowWaveform,
		"export.format":           cfg.Export.Format,
		"export.include_speaker":  cfg.Export.IncludeSpeaker,
		"export.clean":            cfg.Export.Clean,
		"export.max_line_length":  cfg.Export.MaxLineLength,
		"export.max_lines":        cfg.Export.MaxLines,
		"export.language":         cfg.Export.Language,
		"export.output_dir":       cfg.Export.OutputDir,
		"media.ffmpeg_path":       cfg.Media.FFmpegPath,
		"media.output_dir":        cfg.Media.OutputDir,
		"media.temp_dir":          cfg.Media.TempDir,
		"media.keep_temp_files":   cfg.Media.KeepTempFiles,
		"media.sample_rate":       cfg.Media.SampleRate,
		"media.channels":          cfg.Media.Channels,
		"store.path":              cfg.Store.Path,
		"watch.enabled":           cfg.Watch.Enabled,
		"watch.stability_wait":    cfg.Watch.StabilityWait.String(),
		"logging.level":           cfg.Logging.Level,
		"logging.format":          cfg.Logging.Format,
		"logging.output":          cfg.Logging.Output,
		"logging.timestamp":       cfg.Logging.Timestamp,
		"logging.caller":          cfg.Logging.Caller,
		"logging.no_color":        cfg.Logging.NoColor,
	}
	for key, value := range values {
		l.viper.Set(key, value)
	}
}

// Validate checks a loaded configuration for values the application cannot run with
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Editor.ViewportWidth <= 0 {
		return fmt.Errorf("editor viewport_width must be positive")
	}
	if cfg.Editor.TickInterval <= 0 {
		return fmt.Errorf("editor tick_interval must be positive")
	}

	switch strings.ToLower(cfg.Export.Format) {
	case "srt", "vtt", "txt", "text":
	default:
		return fmt.Errorf("export format must be srt, vtt or txt, got %q", cfg.Export.Format)
	}
	if cfg.Export.MaxLineLength <= 0 {
		return fmt.Errorf("export max_line_length must be positive")
	}
	if cfg.Export.MaxLines <= 0 {
		return fmt.Errorf("export max_lines must be positive")
	}

	if cfg.Media.SampleRate <= 0 {
		return fmt.Errorf("media sample_rate must be positive")
	}
	if cfg.Media.Channels <= 0 {
		return fmt.Errorf("media channels must be positive")
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if cfg.Watch.StabilityWait < 0 {
		return fmt.Errorf("watch stability_wait cannot be negative")
	}

	return nil
}

// CreateSampleConfig writes the default configuration to path
func CreateSampleConfig(path string) error {
	return NewLoader(path).Save(DefaultConfig())
}
