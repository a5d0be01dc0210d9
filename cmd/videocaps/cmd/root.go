package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/subtitle"
)

var (
	cfgFile string
	envFile string

	// appConfig and appLoader are set once per invocation by loadConfig
	appConfig *config.Config
	appLoader *config.Loader
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "videocaps",
	Short: "Transcript timeline editor and subtitle toolkit",
	Long: `videocaps edits the timing of transcript segments on a zoomable timeline
and turns the result into subtitles.

Features:
- HTTP API for timeline editors: drag, resize, seek, zoom and playback
- Edits are journaled and written back to the transcript file
- Transcripts rewritten by other programs are reloaded live
- SRT and WebVTT export with speaker labels
- Subtitle burn-in through ffmpeg`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.videocaps.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-output", "stderr", "log output (stdout, stderr, file path)")
	rootCmd.PersistentFlags().Bool("log-no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().Bool("log-caller", false, "include caller information in logs")
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-output":   "logging.output",
	"log-no-color": "logging.no_color",
	"log-caller":   "logging.caller",

	"host":           "server.host",
	"port":           "server.port",
	"cors-origin":    "server.cors_origins",
	"store":          "store.path",
	"watch":          "watch.enabled",
	"stability-wait": "watch.stability_wait",
	"width":          "editor.viewport_width",
	"tick":           "editor.tick_interval",

	"format":      "export.format",
	"clean":       "export.clean",
	"max-line":    "export.max_line_length",
	"max-lines":   "export.max_lines",
	"language":    "export.language",
	"output-dir":  "media.output_dir",
	"temp-dir":    "media.temp_dir",
	"keep-temp":   "media.keep_temp_files",
	"ffmpeg-path": "media.ffmpeg_path",
}

// loadConfig reads the configuration file, dotenv file, environment and the
// flags of the command being run, then initializes the logger
func loadConfig(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader(cfgFile).WithEnvFile(envFile)
	bindFlags(loader.Viper(), cmd.Flags())

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}
	appConfig = cfg
	appLoader = loader

	if used := loader.GetConfigFile(); used != "" {
		logger.Debug().Str("config_file", used).Msg("Loaded configuration file")
	}
	return nil
}

// bindFlags binds the flags set on the command line so that they override
// the config file and environment
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

// exportOptions converts the export configuration into subtitle options
func exportOptions(cfg *config.Config) (subtitle.Format, subtitle.Options, error) {
	format, err := subtitle.ParseFormat(cfg.Export.Format)
	if err != nil {
		return "", subtitle.Options{}, err
	}
	opts := subtitle.Options{
		IncludeSpeaker:  cfg.Export.IncludeSpeaker,
		IncludeMetadata: true,
		Clean:           cfg.Export.Clean,
		Language:        cfg.Export.Language,
		MaxLineLength:   cfg.Export.MaxLineLength,
		MaxLines:        cfg.Export.MaxLines,
	}
	return format, opts, nil
}

// outputPathFor places the subtitle file for input in dir, or next to input
func outputPathFor(input, dir string, format subtitle.Format) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+format.Ext())
}
