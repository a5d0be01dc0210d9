package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/media"
	"github.com/eternnoir/videocaps/pkg/server"
	"github.com/eternnoir/videocaps/pkg/store"
	"github.com/eternnoir/videocaps/pkg/watcher"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [transcripts...]",
	Short: "Serve the timeline editor API",
	Long: `Start the HTTP API that timeline editors talk to.

Every transcript opened through the API, or named on the command line, gets an
editing session. Committed drags are journaled to the store database and
written back to the transcript file. When watching is enabled, transcripts
rewritten by other programs are reloaded into their sessions.

Examples:
  # Serve on the default address
  videocaps serve

  # Open a transcript at startup and listen on all interfaces
  videocaps serve talk.json --host 0.0.0.0 --port 9000

  # Allow any browser origin and disable file watching
  videocaps serve --cors-origin '*' --watch=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "address to listen on")
	serveCmd.Flags().Int("port", 0, "port to listen on")
	serveCmd.Flags().StringSlice("cors-origin", nil, "browser origins allowed to call the API")
	serveCmd.Flags().String("store", "", "path to the edit journal database")
	serveCmd.Flags().Bool("watch", true, "reload transcripts rewritten by other programs")
	serveCmd.Flags().Duration("stability-wait", 0, "quiet period before a changed transcript is reloaded")
	serveCmd.Flags().Float64("width", 0, "viewport width assumed until a client reports one")
	serveCmd.Flags().Duration("tick", 0, "playback clock interval")
	serveCmd.Flags().String("ffmpeg-path", "", "ffmpeg executable used for probing and burn-in")
	serveCmd.Flags().String("output-dir", "", "directory burned videos are written to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	log := logger.WithComponent("serve")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tw *watcher.TranscriptWatcher
	if cfg.Watch.Enabled {
		tw, err = watcher.New(watcher.Config{StabilityWait: cfg.Watch.StabilityWait})
		if err != nil {
			return err
		}
		tw.Start(ctx)
		defer tw.Stop()
	}

	format, exportOpts, err := exportOptions(cfg)
	if err != nil {
		return err
	}

	manager := server.NewManager(server.ManagerOptions{
		Editor:  cfg.Editor,
		Export:  exportOpts,
		Store:   st,
		Watcher: tw,
		Media:   newProcessor(cfg),
	})
	defer manager.CloseAll()

	for _, path := range args {
		sess, err := manager.Open(server.OpenRequest{Transcript: path})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		fmt.Printf("Opened %s as session %s\n", path, sess.ID)
	}

	srv := server.New(manager, server.Options{
		Config:  cfg.Server,
		Export:  exportOpts,
		Format:  format,
		Version: version,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("\nListening on http://%s\n", srv.Addr())
	fmt.Printf("   Store: %s\n", cfg.Store.Path)
	if tw != nil {
		fmt.Printf("   Watching transcripts (quiet period %s)\n", cfg.Watch.StabilityWait)
	}
	fmt.Println("\nPress Ctrl+C to stop...")

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	start := time.Now()
	srv.Stop()
	cancel()
	log.Info().Dur("duration", time.Since(start)).Int("sessions", manager.Len()).Msg("Server stopped")
	return nil
}

// newProcessor builds the ffmpeg wrapper from the media configuration
func newProcessor(cfg *config.Config) *media.Processor {
	return media.NewProcessor(cfg.Media.TempDir,
		media.WithBinary(cfg.Media.FFmpegPath),
		media.WithOutputDir(cfg.Media.OutputDir),
		media.WithKeepTemp(cfg.Media.KeepTempFiles),
		media.WithAudioFormat(cfg.Media.SampleRate, cfg.Media.Channels),
	)
}
