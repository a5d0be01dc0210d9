package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// segmentsCmd represents the segments command
var segmentsCmd = &cobra.Command{
	Use:   "segments <transcript>",
	Short: "List the segments of a transcript",
	Long: `Print a transcript's segments as a table, clamped into its duration the
same way the editor mounts them. Pass --check to fail when the file holds
segments the editor would have to clamp. --insights adds speaker and timing
statistics, frequent keywords and key sentences.`,
	Args: cobra.ExactArgs(1),
	RunE: runSegments,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)

	segmentsCmd.Flags().Int("text-width", 60, "truncate segment text to this many characters")
	segmentsCmd.Flags().Bool("check", false, "exit with an error when a segment violates the timeline bounds")
	segmentsCmd.Flags().Bool("json", false, "print the normalized transcript as JSON")
	segmentsCmd.Flags().Bool("insights", false, "also print transcript statistics, keywords and key points")
}

func runSegments(cmd *cobra.Command, args []string) error {
	doc, err := transcript.Load(args[0])
	if err != nil {
		return err
	}
	total := doc.TotalDuration()
	raw := timeline.New(doc.Segments, total)

	if check, _ := cmd.Flags().GetBool("check"); check {
		if err := raw.Verify(); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}

	normalized := raw.Normalize()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out := *doc
		out.Duration = total
		out.Segments = normalized.Segments()
		data, err := out.ToJSON(true)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}

	textWidth, _ := cmd.Flags().GetInt("text-width")
	styled := logger.IsTerminal(os.Stdout)
	fmt.Fprintln(os.Stdout, renderSegments(normalized, textWidth, styled))

	if insights, _ := cmd.Flags().GetBool("insights"); insights {
		fmt.Fprintln(os.Stdout, renderInsights(transcript.Analyze(normalized.Segments()), textWidth, styled))
	}
	return nil
}

// renderInsights draws the statistics of a transcript as a two column table
func renderInsights(ins transcript.Insights, textWidth int, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	speakers := make([]string, 0, len(ins.Speakers))
	for _, sp := range ins.Speakers {
		speakers = append(speakers, timeline.SpeakerLabel(sp))
	}
	keywords := make([]string, 0, len(ins.Keywords))
	for _, kw := range ins.Keywords {
		keywords = append(keywords, fmt.Sprintf("%s (%d)", kw.Word, kw.Count))
	}

	tw.AppendRows([]table.Row{
		{"Speech", fmt.Sprintf("%.1fs in %d segments, %.1fs average", ins.SpeechDuration, ins.Segments, ins.AverageSegment)},
		{"Speakers", strings.Join(speakers, ", ")},
		{"Words", fmt.Sprintf("%d in %d sentences", ins.WordCount, ins.SentenceCount)},
		{"Keywords", strings.Join(keywords, ", ")},
	})
	for i, point := range ins.KeyPoints {
		label := ""
		if i == 0 {
			label = "Key points"
		}
		tw.AppendRow(table.Row{label, truncate(point, textWidth)})
	}
	return tw.Render()
}

// renderSegments draws tl as a table; styled output is used for terminals
func renderSegments(tl *timeline.Timeline, textWidth int, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
		tw.Style().Color.Header = text.Colors{text.Bold}
	} else {
		tw.SetStyle(table.StyleLight)
	}

	tw.AppendHeader(table.Row{"#", "Speaker", "Start", "End", "Length", "Text"})
	for i, seg := range tl.Segments() {
		label := ""
		if seg.Speaker != "" {
			label = timeline.SpeakerLabel(seg.Speaker)
		}
		tw.AppendRow(table.Row{
			i,
			label,
			timeline.FormatClock(seg.Start),
			timeline.FormatClock(seg.End),
			fmt.Sprintf("%.1fs", seg.Duration()),
			truncate(seg.Text, textWidth),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", timeline.FormatClock(tl.Duration()), fmt.Sprintf("%d segments", tl.Len()), ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// printLine writes to w, ignoring errors on closed pipes
func printLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
