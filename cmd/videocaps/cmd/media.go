package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
)

// mediaCmd groups media file helpers
var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Inspect and convert media files",
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Show duration and stream details of a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := newProcessor(appConfig)
		if err := processor.ValidateFile(args[0]); err != nil {
			return err
		}
		info, err := processor.GetMediaInfo(args[0])
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		tw := table.NewWriter()
		if logger.IsTerminal(os.Stdout) {
			tw.SetStyle(table.StyleRounded)
		} else {
			tw.SetStyle(table.StyleLight)
		}
		tw.AppendRows([]table.Row{
			{"File", info.FilePath},
			{"Format", fmt.Sprintf("%s (%s)", info.Format, info.MimeType)},
			{"Duration", fmt.Sprintf("%s (%.3fs)", timeline.FormatClock(info.Duration), info.Duration)},
			{"Audio", fmt.Sprintf("%d Hz, %d ch", info.SampleRate, info.Channels)},
		})
		if info.IsVideo {
			tw.AppendRow(table.Row{"Video", fmt.Sprintf("%dx%d", info.Width, info.Height)})
		}
		tw.AppendRows([]table.Row{
			{"Bit rate", info.BitRate},
			{"Size", info.Size},
		})
		fmt.Println(tw.Render())
		return nil
	},
}

var extractAudioCmd = &cobra.Command{
	Use:   "extract-audio <file>",
	Short: "Extract the audio track as PCM WAV",
	Long: `Extract the audio track of a media file as 16-bit PCM WAV, using the
configured sample rate and channel count (16 kHz mono by default). This is
the input transcription tools expect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			output = filepath.Join(appConfig.Media.OutputDir, stem+".wav")
		}

		processor := newProcessor(appConfig)
		if err := processor.ValidateFile(input); err != nil {
			return err
		}
		if err := processor.ExtractAudio(context.Background(), input, output); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", input, output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(probeCmd)
	mediaCmd.AddCommand(extractAudioCmd)

	probeCmd.Flags().Bool("json", false, "print the probe result as JSON")

	extractAudioCmd.Flags().StringP("output", "o", "", "output WAV file (default: <name>.wav in the output directory)")
	extractAudioCmd.Flags().String("output-dir", "", "directory for extracted audio")
	extractAudioCmd.Flags().String("ffmpeg-path", "", "ffmpeg executable")
}
