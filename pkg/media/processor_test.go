package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

func TestNewProcessor(t *testing.T) {
	tests := []struct {
		name    string
		tempDir string
		want    string
	}{
		{name: "default temp dir", tempDir: "", want: os.TempDir()},
		{name: "custom temp dir", tempDir: "/custom/temp", want: "/custom/temp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.tempDir)
			assert.Equal(t, tt.want, p.tempDir)
			assert.Equal(t, 16000, p.sampleRate)
			assert.Equal(t, 1, p.channels)
		})
	}
}

func TestIsSupported(t *testing.T) {
	p := NewProcessor("")

	tests := []struct {
		filePath string
		want     bool
	}{
		{"test.wav", true},
		{"test.mp3", true},
		{"test.m4a", true},
		{"test.flac", true},
		{"test.mp4", true},
		{"test.avi", true},
		{"test.mov", true},
		{"test.mkv", true},
		{"test.webm", true},
		{"test.MP4", true},
		{"test.txt", false},
		{"test", false},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsSupported(tt.filePath))
		})
	}
}

func TestDetectFormatAndMime(t *testing.T) {
	tests := []struct {
		filePath string
		format   Format
		mime     string
		video    bool
	}{
		{"a.wav", FormatWAV, "audio/wav", false},
		{"a.mp3", FormatMP3, "audio/mpeg", false},
		{"a.mp4", FormatMP4, "video/mp4", true},
		{"a.MOV", FormatMOV, "video/quicktime", true},
		{"a.webm", FormatWEBM, "video/webm", true},
		{"a.doc", "", "application/octet-stream", false},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			f := DetectFormat(tt.filePath)
			assert.Equal(t, tt.format, f)
			assert.Equal(t, tt.mime, GetMimeType(f))
			assert.Equal(t, tt.video, IsVideoFormat(f))
		})
	}
}

func TestParseProbeInfo(t *testing.T) {
	probe := `{
		"format": {"duration": "125.48", "bit_rate": "128000", "size": "2007680"},
		"streams": [
			{"codec_type": "video", "width": 1920, "height": 1080},
			{"codec_type": "audio", "sample_rate": "48000", "channels": 2},
			{"codec_type": "audio", "sample_rate": "16000", "channels": 1}
		]
	}`

	info := &MediaInfo{FilePath: "/videos/talk.mp4"}
	require.NoError(t, parseProbeInfo(probe, info))

	assert.InDelta(t, 125.48, info.Duration, 1e-9)
	assert.Equal(t, 128000, info.BitRate)
	assert.Equal(t, int64(2007680), info.Size)
	assert.Equal(t, 48000, info.SampleRate, "first audio stream wins")
	assert.Equal(t, 2, info.Channels)
	assert.True(t, info.IsVideo)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, FormatMP4, info.Format)
	assert.Equal(t, "video/mp4", info.MimeType)
}

func TestParseProbeInfoAudioOnly(t *testing.T) {
	probe := `{"format": {"duration": "3.0"}, "streams": [{"codec_type": "audio", "sample_rate": "16000", "channels": 1}]}`
	info := &MediaInfo{FilePath: "clip.wav"}
	require.NoError(t, parseProbeInfo(probe, info))
	assert.False(t, info.IsVideo)
	assert.Equal(t, 3.0, info.Duration)

	assert.Error(t, parseProbeInfo("not json", &MediaInfo{}))
}

func TestSubtitlesFilter(t *testing.T) {
	assert.Equal(t, "subtitles='/tmp/burn-1.srt'", SubtitlesFilter("/tmp/burn-1.srt"))
	assert.Equal(t, `subtitles='/tmp/it'\''s.srt'`, SubtitlesFilter("/tmp/it's.srt"))
}

func TestBurnArgs(t *testing.T) {
	p := NewProcessor("")
	args := p.burnArgs("in.mp4", "/tmp/subs.srt", "out/in_subtitled.mp4")

	assert.Contains(t, args, "in.mp4")
	assert.Contains(t, args, "subtitles='/tmp/subs.srt'")
	assert.Contains(t, args, "-c:a")
	assert.Contains(t, args, "copy")
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "out/in_subtitled.mp4")
}

func TestExtractArgs(t *testing.T) {
	p := NewProcessor("", WithAudioFormat(22050, 2))
	args := p.extractArgs("in.mp4", "out.wav")

	assert.Contains(t, args, "pcm_s16le")
	assert.Contains(t, args, "22050")
	assert.Contains(t, args, "2")
	assert.Contains(t, args, "out.wav")
}

func TestBurnSubtitlesValidation(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir, WithOutputDir(filepath.Join(dir, "out")))
	ctx := context.Background()

	_, err := p.BurnSubtitles(ctx, filepath.Join(dir, "missing.mp4"), []timeline.Segment{{Start: 0, End: 1}}, "")
	assert.Error(t, err)

	video := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(video, []byte("x"), 0o644))
	_, err = p.BurnSubtitles(ctx, video, nil, "")
	assert.Error(t, err)
}

func TestMissingFiles(t *testing.T) {
	p := NewProcessor(t.TempDir())
	missing := filepath.Join(t.TempDir(), "nope.mp4")

	_, err := p.GetMediaInfo(missing)
	assert.Error(t, err)
	assert.Error(t, p.ValidateFile(missing))
	assert.Error(t, p.ExtractAudio(context.Background(), missing, filepath.Join(t.TempDir(), "a.wav")))
}

func TestExtractAudioWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	dir := t.TempDir()
	source := filepath.Join(dir, "tone.wav")
	gen := exec.Command("ffmpeg", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-y", source)
	require.NoError(t, gen.Run())

	p := NewProcessor(dir)
	out := filepath.Join(dir, "out", "tone16k.wav")
	require.NoError(t, p.ExtractAudio(context.Background(), source, out))

	info, err := p.GetMediaInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.InDelta(t, 1.0, info.Duration, 0.1)

	d, err := p.Duration(out)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 0.1)
}
