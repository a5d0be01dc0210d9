package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// burnCmd represents the burn command
var burnCmd = &cobra.Command{
	Use:   "burn <transcript> [video]",
	Short: "Burn transcript subtitles into a video",
	Long: `Render a transcript's segments into the picture of a video with ffmpeg.

The video defaults to the media file named in the transcript. Audio is copied
unchanged. Speaker labels are not burned in.

Examples:
  # Burn talk.json into the video it references
  videocaps burn talk.json

  # Explicit video and output file
  videocaps burn talk.json recording.mp4 -o recording_captioned.mp4`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBurn,
}

func init() {
	rootCmd.AddCommand(burnCmd)

	burnCmd.Flags().StringP("output", "o", "", "output video (default: <video>_subtitled.mp4 in the output directory)")
	burnCmd.Flags().String("output-dir", "", "directory burned videos are written to")
	burnCmd.Flags().String("ffmpeg-path", "", "ffmpeg executable")
	burnCmd.Flags().String("temp-dir", "", "directory for the temporary subtitle file")
	burnCmd.Flags().Bool("keep-temp", false, "keep the temporary subtitle file")
	burnCmd.Flags().Duration("timeout", time.Hour, "maximum time for the ffmpeg run")
}

func runBurn(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("burn")

	doc, err := transcript.Load(args[0])
	if err != nil {
		return err
	}

	video := ""
	if len(args) > 1 {
		video = args[1]
	} else if doc.Media != "" {
		video = doc.Media
		if !filepath.IsAbs(video) {
			video = filepath.Join(filepath.Dir(args[0]), video)
		}
	}
	if video == "" {
		return fmt.Errorf("no video given and the transcript does not name its media")
	}

	processor := newProcessor(appConfig)
	if err := processor.ValidateFile(video); err != nil {
		return err
	}

	total := doc.TotalDuration()
	if d, err := processor.Duration(video); err == nil && d > 0 {
		total = d
	} else if err != nil {
		log.Warn().Err(err).Msg("Could not probe video duration, using the transcript's")
	}
	segments := timeline.New(doc.Segments, total).Normalize().Segments()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	output, _ := cmd.Flags().GetString("output")
	fmt.Printf("Burning %d cues into %s...\n", len(segments), video)

	start := time.Now()
	out, err := processor.BurnSubtitles(ctx, video, segments, output)
	if err != nil {
		return err
	}

	fmt.Printf("Done in %s: %s\n", time.Since(start).Round(time.Second), out)
	return nil
}
