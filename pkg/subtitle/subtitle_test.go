package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

func TestFormatTimes(t *testing.T) {
	tests := []struct {
		seconds float64
		srt     string
		vtt     string
	}{
		{0, "00:00:00,000", "00:00:00.000"},
		{1.7, "00:00:01,700", "00:00:01.700"},
		{3661.5, "01:01:01,500", "01:01:01.500"},
		{59.9996, "00:01:00,000", "00:01:00.000"},
		{-4, "00:00:00,000", "00:00:00.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.srt, FormatSRTTime(tt.seconds), "srt %v", tt.seconds)
		assert.Equal(t, tt.vtt, FormatVTTTime(tt.seconds), "vtt %v", tt.seconds)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello world again", CleanText("  hello   world \n again ", 42, 2))

	long := strings.TrimSpace(strings.Repeat("word ", 20))
	want := strings.TrimSpace(strings.Repeat("word ", 8))
	assert.Equal(t, want+"\n"+want, CleanText(long, 42, 2))

	// exactly two full lines is left on one line
	edge := strings.Repeat("x", 84)
	assert.Equal(t, edge, CleanText(edge, 42, 2))
}

func TestToSRT(t *testing.T) {
	segments := []timeline.Segment{
		{Text: "Hello, welcome to this video tutorial.", Start: 0, End: 3.5, Speaker: "SPEAKER_00"},
		{Text: "That sounds great!", Start: 7.5, End: 11, Speaker: "SPEAKER_01"},
		{Text: "No speaker here.", Start: 12, End: 13},
	}

	got := ToSRT(segments, DefaultOptions())
	want := "1\n00:00:00,000 --> 00:00:03,500\n[Speaker 1] Hello, welcome to this video tutorial.\n" +
		"\n" +
		"2\n00:00:07,500 --> 00:00:11,000\n[Speaker 2] That sounds great!\n" +
		"\n" +
		"3\n00:00:12,000 --> 00:00:13,000\nNo speaker here.\n"
	assert.Equal(t, want, got)

	plain := ToSRT(segments, Options{})
	assert.NotContains(t, plain, "[Speaker")
}

func TestToVTT(t *testing.T) {
	segments := []timeline.Segment{
		{Text: "Hello", Start: 0, End: 3.5, Speaker: "SPEAKER_00"},
		{Text: "Bye", Start: 3.5, End: 5},
	}

	got := ToVTT(segments, DefaultOptions())
	want := "WEBVTT\nKind: captions\nLanguage: en\n\n" +
		"00:00:00.000 --> 00:00:03.500\n<v Speaker 1>Hello</v>\n\n" +
		"00:00:03.500 --> 00:00:05.000\nBye\n"
	assert.Equal(t, want, got)

	bare := ToVTT(segments, Options{Language: "fr"})
	assert.True(t, strings.HasPrefix(bare, "WEBVTT\n\n00:00:00.000"))
	assert.NotContains(t, bare, "Language")
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, "", ToSRT(nil, DefaultOptions()))
	assert.Equal(t, "WEBVTT\n\n", ToVTT(nil, DefaultOptions()))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" VTT ")
	require.NoError(t, err)
	assert.Equal(t, FormatVTT, f)
	assert.Equal(t, ".vtt", f.Ext())

	_, err = ParseFormat("ass")
	assert.Error(t, err)

	_, err = Render(Format("ass"), nil, Options{})
	assert.Error(t, err)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	assert.Equal(t, ".txt", f.Ext())
	assert.Equal(t, "text/plain; charset=utf-8", f.ContentType())
}

func conversation() []timeline.Segment {
	return []timeline.Segment{
		{Text: "so we begin", Start: 0, End: 2, Speaker: "SPEAKER_00"},
		{Text: "and continue", Start: 2.5, End: 4, Speaker: "SPEAKER_00"},
		{Text: "do you agree", Start: 4, End: 6, Speaker: "SPEAKER_01"},
	}
}

func TestToText(t *testing.T) {
	assert.Equal(t,
		"Speaker 1: so we begin and continue\n\nSpeaker 2: do you agree\n",
		ToText(conversation(), Options{IncludeSpeaker: true}))
	assert.Equal(t,
		"so we begin and continue\n\ndo you agree\n",
		ToText(conversation(), Options{}))
	assert.Equal(t, "", ToText(nil, Options{}))
}

func TestRenderClean(t *testing.T) {
	out, err := Render(FormatText, conversation(), Options{IncludeSpeaker: true, Clean: true})
	require.NoError(t, err)
	assert.Equal(t, "Speaker 1: So we begin. And continue.\n\nSpeaker 2: Do you agree?\n", out)

	segments := conversation()
	out, err = Render(FormatSRT, segments, Options{IncludeSpeaker: true, Clean: true})
	require.NoError(t, err)
	assert.Contains(t, out, "[Speaker 2] Do you agree?")
	assert.Equal(t, "do you agree", segments[2].Text)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "talk.srt")
	segments := []timeline.Segment{{Text: "hi", Start: 1, End: 2}}

	require.NoError(t, WriteFile(path, FormatSRT, segments, DefaultOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nhi\n", string(data))
}
