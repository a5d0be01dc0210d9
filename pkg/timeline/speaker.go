package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// SpeakerPalette is the fixed set of display colors assigned to speakers
var SpeakerPalette = []string{
	"#3b82f6", // blue
	"#10b981", // green
	"#f59e0b", // amber
	"#ef4444", // red
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f97316", // orange
}

// DefaultSpeakerLabel is shown for segments without a speaker
const DefaultSpeakerLabel = "Unknown"

// SpeakerIndex parses the numeric suffix of a speaker id such as "SPEAKER_02".
// Malformed or missing labels yield 0.
func SpeakerIndex(speaker string) int {
	idx := strings.LastIndex(speaker, "_")
	if idx < 0 || idx == len(speaker)-1 {
		return 0
	}
	n, err := strconv.Atoi(speaker[idx+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SpeakerColor returns the palette color for a speaker id
func SpeakerColor(speaker string) string {
	return SpeakerPalette[SpeakerIndex(speaker)%len(SpeakerPalette)]
}

// SpeakerLabel turns a diarization id like "SPEAKER_00" into "Speaker 1".
// Other non-empty ids are returned unchanged.
func SpeakerLabel(speaker string) string {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return DefaultSpeakerLabel
	}
	if rest, ok := strings.CutPrefix(speaker, "SPEAKER_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return fmt.Sprintf("Speaker %d", n+1)
		}
	}
	return speaker
}
