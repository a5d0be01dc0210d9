package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/subtitle"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [transcripts...]",
	Short: "Convert transcripts to subtitle files",
	Long: `Convert transcript files to SRT or WebVTT subtitles.

Segments are clamped into the transcript's duration before rendering. Long cue
text is wrapped to the configured line length.

Examples:
  # Write talk.srt next to talk.json
  videocaps export talk.json

  # WebVTT without speaker labels to stdout
  videocaps export talk.json --format vtt --no-speakers -o -

  # Batch export into a directory
  videocaps export *.json --format vtt --dir subtitles

  # Readable paragraphs with tidied punctuation
  videocaps export talk.json --format txt --clean -o -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (single transcript only)")
	exportCmd.Flags().String("dir", "", "directory for subtitle files (default: next to each transcript)")
	exportCmd.Flags().String("format", "", "output format (srt, vtt, txt)")
	exportCmd.Flags().Bool("clean", false, "tidy spacing, capitalisation and punctuation of cue text")
	exportCmd.Flags().Bool("no-speakers", false, "leave speaker labels out of cues")
	exportCmd.Flags().Int("max-line", 0, "maximum characters per subtitle line")
	exportCmd.Flags().Int("max-lines", 0, "maximum lines per cue")
	exportCmd.Flags().String("language", "", "language written to the WebVTT header")
	exportCmd.Flags().Float64("duration", 0, "media duration in seconds (default: from the transcript)")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	format, opts, err := exportOptions(appConfig)
	if err != nil {
		return err
	}
	if noSpeakers, _ := cmd.Flags().GetBool("no-speakers"); noSpeakers {
		opts.IncludeSpeaker = false
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output can only be used with a single transcript")
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = appConfig.Export.OutputDir
	}
	duration, _ := cmd.Flags().GetFloat64("duration")

	for _, path := range args {
		doc, err := transcript.Load(path)
		if err != nil {
			return err
		}
		total := duration
		if total <= 0 {
			total = doc.TotalDuration()
		}
		segments := timeline.New(doc.Segments, total).Normalize().Segments()

		if output == "-" {
			content, err := subtitle.Render(format, segments, opts)
			if err != nil {
				return err
			}
			_, err = os.Stdout.WriteString(content)
			return err
		}

		target := output
		if target == "" {
			target = outputPathFor(path, dir, format)
		}
		if err := subtitle.WriteFile(target, format, segments, opts); err != nil {
			log.Error().Err(err).Str("transcript", path).Msg("Export failed")
			return err
		}

		log.Info().
			Str("transcript", path).
			Str("output", target).
			Int("segments", len(segments)).
			Msg("Subtitles exported")
		fmt.Printf("%s -> %s\n", path, target)
	}
	return nil
}
