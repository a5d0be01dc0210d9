package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/subtitle"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

func TestOutputPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "talk.srt"), outputPathFor(filepath.Join("data", "talk.json"), "", subtitle.FormatSRT))
	assert.Equal(t, filepath.Join("subs", "talk.vtt"), outputPathFor(filepath.Join("data", "talk.json"), "subs", subtitle.FormatVTT))
	assert.Equal(t, filepath.Join("subs", "notes.v2.srt"), outputPathFor("notes.v2.json", "subs", subtitle.FormatSRT))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "日本", truncate("日本語", 2))
}

func TestExportOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Export.Format = "VTT"
	cfg.Export.IncludeSpeaker = false

	format, opts, err := exportOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, subtitle.FormatVTT, format)
	assert.False(t, opts.IncludeSpeaker)
	assert.Equal(t, 42, opts.MaxLineLength)

	cfg.Export.Format = "txt"
	cfg.Export.Clean = true
	format, opts, err = exportOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, subtitle.FormatText, format)
	assert.True(t, opts.Clean)

	cfg.Export.Format = "ass"
	_, _, err = exportOptions(cfg)
	assert.Error(t, err)
}

func TestRenderInsights(t *testing.T) {
	ins := transcript.Analyze([]timeline.Segment{
		{Text: "Welcome to the show.", Start: 0, End: 2, Speaker: "SPEAKER_00"},
		{Text: "Thanks for having me?", Start: 2, End: 3, Speaker: "SPEAKER_01"},
	})

	out := renderInsights(ins, 60, false)
	assert.Contains(t, out, "Speaker 1, Speaker 2")
	assert.Contains(t, out, "3.0s in 2 segments, 1.5s average")
	assert.Contains(t, out, "8 in 2 sentences")
	assert.Contains(t, out, "Key points")
	assert.Contains(t, out, "Thanks for having me?")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderSegments(t *testing.T) {
	tl := timeline.New([]timeline.Segment{
		{Text: "Hello there", Start: 1, End: 2.5, Speaker: "SPEAKER_00"},
		{Text: "Reply", Start: 3, End: 4},
	}, 10)

	out := renderSegments(tl, 60, false)
	assert.Contains(t, out, "Speaker 1")
	assert.Contains(t, out, "Hello there")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, strings.ToLower(out), "2 segments")
	assert.NotContains(t, out, "\x1b[", "plain output has no escape codes")
}

func TestBindFlagsOnlyOverridesSetFlags(t *testing.T) {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("host", "", "")
	flags.StringSlice("cors-origin", nil, "")
	require.NoError(t, flags.Parse([]string{"--port", "9001", "--cors-origin", "http://a.test,http://b.test"}))

	loader := config.NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).WithEnvFile("")
	bindFlags(loader.Viper(), flags)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "unset flags leave the default")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}
