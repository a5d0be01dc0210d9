package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/editor"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <transcript> <script>",
	Short: "Replay recorded editor input against a transcript",
	Long: `Drive the timeline editor headlessly from a script of recorded input.

The script holds one JSON event per line, for example:

  {"type":"down","index":0,"mode":"resize-end","x":120}
  {"type":"move","x":180}
  {"type":"up"}
  {"type":"tick","ms":500}

Event types: down, move, up, seek, seek_time, play, pause, toggle, zoom,
width, tick and replace. Playback runs on a simulated clock advanced only by
tick events. Each committed drag is printed; --write saves the result.`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Float64("width", 0, "initial viewport width in pixels")
	replayCmd.Flags().Float64("duration", 0, "media duration in seconds (default: from the transcript)")
	replayCmd.Flags().Bool("write", false, "write the edited segments back to the transcript")
}

func runReplay(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("replay")
	transcriptPath, scriptPath := args[0], args[1]

	doc, err := transcript.Load(transcriptPath)
	if err != nil {
		return err
	}
	total, _ := cmd.Flags().GetFloat64("duration")
	if total <= 0 {
		total = doc.TotalDuration()
	}
	if total <= 0 {
		return fmt.Errorf("%s has no duration, pass --duration", transcriptPath)
	}

	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	events, err := editor.ParseScript(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}

	commits := 0
	r := editor.NewReplayer(doc.Segments, total, appConfig.Editor.ViewportWidth, editor.Options{
		TickInterval: appConfig.Editor.TickInterval,
		Zoom:         appConfig.Editor.Zoom,
		ShowWaveform: appConfig.Editor.ShowWaveform,
		OnSegmentUpdate: func(index int, start, end float64) {
			commits++
			printLine(os.Stdout, "commit #%d: segment %d -> %s .. %s",
				commits, index, timeline.FormatClock(start), timeline.FormatClock(end))
		},
	})
	defer r.Close()

	accepted, err := r.Run(events)
	if err != nil {
		return err
	}

	state := r.Editor().State()
	log.Info().
		Int("events", len(events)).
		Int("accepted", accepted).
		Int("commits", commits).
		Msg("Replay finished")

	printLine(os.Stdout, "\n%d of %d events accepted, %d commits", accepted, len(events), commits)
	printLine(os.Stdout, "playhead %s / %s, zoom %.2fx", state.TimeLabel, state.DurationLabel, state.View.ZoomFactor)

	segments := r.Editor().Segments()
	printLine(os.Stdout, "%s", renderSegments(timeline.New(segments, total), 60, logger.IsTerminal(os.Stdout)))

	if write, _ := cmd.Flags().GetBool("write"); write {
		if r.Editor().DragState() == editor.Dragging {
			log.Warn().Msg("Script ends with a drag in progress, its segment is written as it was before the drag")
		}
		doc.Segments = r.Editor().CommittedSegments()
		if err := doc.Save(transcriptPath); err != nil {
			return err
		}
		printLine(os.Stdout, "wrote %s", transcriptPath)
	}
	return nil
}
