package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eternnoir/videocaps/pkg/logger"
)

// Config represents the application configuration
type Config struct {
	// HTTP API Configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Timeline Editor Configuration
	Editor EditorConfig `yaml:"editor" mapstructure:"editor"`

	// Subtitle Export Configuration
	Export ExportConfig `yaml:"export" mapstructure:"export"`

	// Media Processing Configuration
	Media MediaConfig `yaml:"media" mapstructure:"media"`

	// Edit Journal Configuration
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Transcript Watch Configuration
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`

	// Logging Configuration
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`

	// Origins allowed to call the API from a browser; "*" allows any
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`

	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// EditorConfig contains timeline editor defaults
type EditorConfig struct {
	// Viewport width assumed until a client reports its measurement
	ViewportWidth float64 `yaml:"viewport_width" mapstructure:"viewport_width"`

	Zoom         float64       `yaml:"zoom" mapstructure:"zoom"`
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	ShowWaveform bool          `yaml:"show_waveform" mapstructure:"show_waveform"`
}

// ExportConfig contains subtitle rendering settings
type ExportConfig struct {
	Format         string `yaml:"format" mapstructure:"format"` // srt, vtt, txt
	IncludeSpeaker bool   `yaml:"include_speaker" mapstructure:"include_speaker"`
	Clean          bool   `yaml:"clean" mapstructure:"clean"` // tidy cue text before rendering
	MaxLineLength  int    `yaml:"max_line_length" mapstructure:"max_line_length"`
	MaxLines       int    `yaml:"max_lines" mapstructure:"max_lines"`
	Language       string `yaml:"language" mapstructure:"language"`
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
}

// MediaConfig contains ffmpeg processing settings
type MediaConfig struct {
	// FFmpegPath is the ffmpeg executable; ffprobe is looked up on PATH
	FFmpegPath string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`

	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
	TempDir       string `yaml:"temp_dir" mapstructure:"temp_dir"`
	KeepTempFiles bool   `yaml:"keep_temp_files" mapstructure:"keep_temp_files"`
	SampleRate    int    `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels      int    `yaml:"channels" mapstructure:"channels"`
}

// StoreConfig contains edit journal settings
type StoreConfig struct {
	// Path to the BoltDB journal database
	Path string `yaml:"path" mapstructure:"path"`
}

// WatchConfig contains transcript file watch settings
type WatchConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Quiet period after the last change event before a transcript is reloaded
	StabilityWait time.Duration `yaml:"stability_wait" mapstructure:"stability_wait"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Editor: EditorConfig{
			ViewportWidth: 1000,
			Zoom:          1.0,
			TickInterval:  100 * time.Millisecond,
			ShowWaveform:  true,
		},
		Export: ExportConfig{
			Format:         "srt",
			IncludeSpeaker: true,
			MaxLineLength:  42,
			MaxLines:       2,
			Language:       "en",
		},
		Media: MediaConfig{
			FFmpegPath: "ffmpeg",
			OutputDir:  "outputs",
			TempDir:    filepath.Join(os.TempDir(), "videocaps"),
			SampleRate: 16000,
			Channels:   1,
		},
		Store: StoreConfig{
			Path: ".videocaps.db",
		},
		Watch: WatchConfig{
			Enabled:       true,
			StabilityWait: 500 * time.Millisecond,
		},
		Logging: *logger.DefaultConfig(),
	}
}
