package subtitle

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

// Format is a subtitle file format
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	// FormatText is plain reading text grouped into paragraphs, without timing
	FormatText Format = "txt"
)

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %q", s)
	}
}

// Ext returns the file extension for the format, including the dot
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/x-subrip; charset=utf-8"
	}
}

// Options controls subtitle rendering
type Options struct {
	// IncludeSpeaker prefixes each cue with its speaker label
	IncludeSpeaker bool
	// IncludeMetadata adds the Kind and Language header lines to VTT output
	IncludeMetadata bool
	Language        string
	// Clean tidies cue text first: spacing, capitalisation and closing punctuation
	Clean bool

	// MaxLineLength and MaxLines bound the wrapping of long cue text
	MaxLineLength int
	MaxLines      int
}

// DefaultOptions returns the standard broadcast-style settings
func DefaultOptions() Options {
	return Options{
		IncludeSpeaker:  true,
		IncludeMetadata: true,
		Language:        "en",
		MaxLineLength:   42,
		MaxLines:        2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = d.MaxLineLength
	}
	if o.MaxLines <= 0 {
		o.MaxLines = d.MaxLines
	}
	if o.Language == "" {
		o.Language = d.Language
	}
	return o
}

// Render produces the subtitle file content for segments in the given format
func Render(format Format, segments []timeline.Segment, opts Options) (string, error) {
	if opts.Clean {
		segments = transcript.ProcessSegments(segments)
	}
	switch format {
	case FormatSRT:
		return ToSRT(segments, opts), nil
	case FormatVTT:
		return ToVTT(segments, opts), nil
	case FormatText:
		return ToText(segments, opts), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %q", format)
	}
}

// ToSRT renders segments as SubRip cues numbered from 1
func ToSRT(segments []timeline.Segment, opts Options) string {
	if len(segments) == 0 {
		logger.WithComponent("subtitle").Warn().Msg("No segments provided for SRT conversion")
		return ""
	}
	opts = opts.withDefaults()

	blocks := make([]string, 0, len(segments))
	for i, seg := range segments {
		text := seg.Text
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = fmt.Sprintf("[%s] %s", timeline.SpeakerLabel(seg.Speaker), text)
		}
		text = CleanText(text, opts.MaxLineLength, opts.MaxLines)

		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1, FormatSRTTime(seg.Start), FormatSRTTime(seg.End), text))
	}

	return strings.Join(blocks, "\n")
}

// ToVTT renders segments as WebVTT cues, using voice tags for speakers
func ToVTT(segments []timeline.Segment, opts Options) string {
	if len(segments) == 0 {
		logger.WithComponent("subtitle").Warn().Msg("No segments provided for VTT conversion")
		return "WEBVTT\n\n"
	}
	opts = opts.withDefaults()

	lines := []string{"WEBVTT"}
	if opts.IncludeMetadata {
		lines = append(lines, "Kind: captions", "Language: "+opts.Language)
	}
	lines = append(lines, "")

	for _, seg := range segments {
		text := CleanText(seg.Text, opts.MaxLineLength, opts.MaxLines)
		if opts.IncludeSpeaker && seg.Speaker != "" {
			text = fmt.Sprintf("<v %s>%s</v>", timeline.SpeakerLabel(seg.Speaker), text)
		}
		lines = append(lines, fmt.Sprintf("%s --> %s\n%s\n",
			FormatVTTTime(seg.Start), FormatVTTTime(seg.End), text))
	}

	return strings.Join(lines, "\n")
}

// ToText renders segments as paragraphs separated by blank lines. With
// IncludeSpeaker each paragraph that has a speaker opens with its label.
func ToText(segments []timeline.Segment, opts Options) string {
	paras := transcript.Paragraphs(segments)
	if len(paras) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(paras))
	for _, p := range paras {
		text := p.Text
		if opts.IncludeSpeaker && p.Speaker != "" {
			text = timeline.SpeakerLabel(p.Speaker) + ": " + text
		}
		blocks = append(blocks, text)
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// FormatSRTTime formats seconds as HH:MM:SS,mmm
func FormatSRTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// FormatVTTTime formats seconds as HH:MM:SS.mmm
func FormatVTTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTime(seconds float64) (h, m, s, ms int64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms = total % 1000
	total /= 1000
	s = total % 60
	total /= 60
	m = total % 60
	h = total / 60
	return h, m, s, ms
}

// CleanText collapses whitespace in text. Text longer than two full lines is
// wrapped at maxLineLength characters and cut to maxLines lines.
func CleanText(text string, maxLineLength, maxLines int) string {
	words := strings.Fields(text)
	text = strings.Join(words, " ")

	if maxLineLength <= 0 || len([]rune(text)) <= maxLineLength*2 {
		return text
	}

	var lines []string
	var current []string
	length := 0
	for _, word := range words {
		n := len([]rune(word))
		if length+n+1 <= maxLineLength {
			current = append(current, word)
			length += n + 1
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
		length = n
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

// WriteFile renders segments and writes them to path
func WriteFile(path string, format Format, segments []timeline.Segment, opts Options) error {
	content, err := Render(format, segments, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", strings.ToUpper(string(format)), err)
	}

	logger.WithComponent("subtitle").Info().
		Str("path", path).
		Str("format", string(format)).
		Int("cues", len(segments)).
		Msg("Subtitle file written")
	return nil
}
