package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/subtitle"
	"github.com/eternnoir/videocaps/pkg/timeline"
)

// Processor wraps the ffmpeg toolchain: probing media for its duration,
// extracting audio and burning subtitles into video
type Processor struct {
	tempDir    string
	outputDir  string
	binary     string
	keepTemp   bool
	sampleRate int
	channels   int
}

// Option configures a Processor
type Option func(*Processor)

// WithOutputDir sets the directory burned videos are written to by default
func WithOutputDir(dir string) Option {
	return func(p *Processor) { p.outputDir = dir }
}

// WithKeepTemp keeps temporary subtitle files after a burn
func WithKeepTemp(keep bool) Option {
	return func(p *Processor) { p.keepTemp = keep }
}

// WithAudioFormat sets the sample rate and channel count of extracted audio
func WithAudioFormat(sampleRate, channels int) Option {
	return func(p *Processor) {
		if sampleRate > 0 {
			p.sampleRate = sampleRate
		}
		if channels > 0 {
			p.channels = channels
		}
	}
}

// WithBinary overrides the ffmpeg executable
func WithBinary(binary string) Option {
	return func(p *Processor) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// NewProcessor creates a new media processor
func NewProcessor(tempDir string, opts ...Option) *Processor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	p := &Processor{
		tempDir:    tempDir,
		outputDir:  "outputs",
		binary:     "ffmpeg",
		sampleRate: 16000,
		channels:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetMediaInfo probes a media file with ffprobe
func (p *Processor) GetMediaInfo(filePath string) (*MediaInfo, error) {
	log := logger.WithComponent("media").WithField("file", filepath.Base(filePath))

	if !fileExists(filePath) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	log.Debug().Msg("Probing file with ffprobe")
	probe, err := ffmpeg.Probe(filePath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to probe file")
		return nil, fmt.Errorf("failed to probe file: %w", err)
	}

	info := &MediaInfo{FilePath: filePath}
	if err := parseProbeInfo(probe, info); err != nil {
		return nil, fmt.Errorf("failed to parse probe info: %w", err)
	}

	log.Info().
		Float64("duration", info.Duration).
		Bool("is_video", info.IsVideo).
		Str("format", string(info.Format)).
		Msg("Media information extracted")

	return info, nil
}

// Duration returns the playable duration of a media file in seconds
func (p *Processor) Duration(filePath string) (float64, error) {
	info, err := p.GetMediaInfo(filePath)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("media has no duration: %s", filePath)
	}
	return info.Duration, nil
}

// IsSupported checks if the file format is supported
func (p *Processor) IsSupported(filePath string) bool {
	return DetectFormat(filePath) != ""
}

// ValidateFile checks that a file exists, has a supported extension and probes cleanly
func (p *Processor) ValidateFile(filePath string) error {
	if !fileExists(filePath) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if !p.IsSupported(filePath) {
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(filePath))
	}
	if _, err := ffmpeg.Probe(filePath); err != nil {
		return fmt.Errorf("invalid or corrupted file: %w", err)
	}
	return nil
}

// ExtractAudio writes the audio track of inputPath as 16-bit PCM WAV
func (p *Processor) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	log := logger.WithComponent("media").
		WithField("input", filepath.Base(inputPath)).
		WithField("output", filepath.Base(outputPath))

	if !fileExists(inputPath) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info().Int("sample_rate", p.sampleRate).Int("channels", p.channels).Msg("Extracting audio")
	if err := p.run(ctx, p.extractArgs(inputPath, outputPath)); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	if !fileExists(outputPath) {
		return fmt.Errorf("output file was not created: %s", outputPath)
	}
	return nil
}

func (p *Processor) extractArgs(inputPath, outputPath string) []string {
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"acodec": "pcm_s16le",
			"ar":     strconv.Itoa(p.sampleRate),
			"ac":     strconv.Itoa(p.channels),
		}).
		OverWriteOutput().
		GetArgs()
}

// BurnSubtitles renders segments into the picture of videoPath. An empty
// outputPath writes <stem>_subtitled.mp4 to the output directory. Speaker
// labels are left out of burned captions. Returns the output path.
func (p *Processor) BurnSubtitles(ctx context.Context, videoPath string, segments []timeline.Segment, outputPath string) (string, error) {
	log := logger.WithComponent("media").WithField("video", filepath.Base(videoPath))

	if !fileExists(videoPath) {
		return "", fmt.Errorf("video file not found: %s", videoPath)
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("no segments to burn")
	}

	if outputPath == "" {
		stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		outputPath = filepath.Join(p.outputDir, stem+"_subtitled.mp4")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(p.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	srt, err := os.CreateTemp(p.tempDir, "burn-*.srt")
	if err != nil {
		return "", fmt.Errorf("failed to create temp subtitle file: %w", err)
	}
	srtPath := srt.Name()
	if !p.keepTemp {
		defer os.Remove(srtPath)
	}

	opts := subtitle.DefaultOptions()
	opts.IncludeSpeaker = false
	if _, err := srt.WriteString(subtitle.ToSRT(segments, opts)); err != nil {
		_ = srt.Close()
		return "", fmt.Errorf("failed to write temp subtitle file: %w", err)
	}
	if err := srt.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp subtitle file: %w", err)
	}

	log.Info().
		Str("output", outputPath).
		Int("segments", len(segments)).
		Msg("Burning subtitles")

	start := time.Now()
	if err := p.run(ctx, p.burnArgs(videoPath, srtPath, outputPath)); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Subtitle burn failed")
		return "", fmt.Errorf("ffmpeg subtitle burn failed: %w", err)
	}
	if !fileExists(outputPath) {
		return "", fmt.Errorf("output file was not created: %s", outputPath)
	}

	log.Info().Dur("duration", time.Since(start)).Str("output", outputPath).Msg("Subtitles burned")
	return outputPath, nil
}

func (p *Processor) burnArgs(videoPath, srtPath, outputPath string) []string {
	return ffmpeg.Input(videoPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":  SubtitlesFilter(srtPath),
			"c:a": "copy",
		}).
		OverWriteOutput().
		GetArgs()
}

// SubtitlesFilter builds the ffmpeg subtitles filter for an SRT path,
// quoting it for the filtergraph parser
func SubtitlesFilter(srtPath string) string {
	path := filepath.ToSlash(srtPath)
	path = strings.ReplaceAll(path, `'`, `'\''`)
	return fmt.Sprintf("subtitles='%s'", path)
}

// run executes ffmpeg with args, killing it when ctx is cancelled
func (p *Processor) run(ctx context.Context, args []string) error {
	log := logger.Ctx(ctx)
	log.Debug().Str("binary", p.binary).Strs("args", args).Msg("Running ffmpeg")

	cmd := exec.CommandContext(ctx, p.binary, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("ffmpeg cancelled")
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", err, tail(string(out), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// parseProbeInfo parses ffprobe JSON output into info
func parseProbeInfo(probeData string, info *MediaInfo) error {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
			Size     string `json:"size"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
		} `json:"streams"`
	}

	if err := json.Unmarshal([]byte(probeData), &probe); err != nil {
		return fmt.Errorf("failed to parse probe JSON: %w", err)
	}

	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.BitRate = int(br)
	}
	if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		info.Size = size
	}

	audioSeen := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "audio":
			if audioSeen {
				continue
			}
			audioSeen = true
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = sr
			}
			info.Channels = stream.Channels
		case "video":
			if !info.IsVideo {
				info.IsVideo = true
				info.Width = stream.Width
				info.Height = stream.Height
			}
		}
	}

	info.Format = DetectFormat(info.FilePath)
	info.MimeType = GetMimeType(info.Format)
	if !info.IsVideo && IsVideoFormat(info.Format) && len(probe.Streams) == 0 {
		info.IsVideo = true
	}

	return nil
}
