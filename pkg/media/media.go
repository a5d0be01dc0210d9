package media

import (
	"path/filepath"
	"strings"
)

// Format is a container format identified by file extension
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatFLAC Format = "flac"
	FormatMP4  Format = "mp4"
	FormatMOV  Format = "mov"
	FormatMKV  Format = "mkv"
	FormatAVI  Format = "avi"
	FormatWEBM Format = "webm"
)

var mimeTypes = map[Format]string{
	FormatWAV:  "audio/wav",
	FormatMP3:  "audio/mpeg",
	FormatM4A:  "audio/m4a",
	FormatFLAC: "audio/flac",
	FormatMP4:  "video/mp4",
	FormatMOV:  "video/quicktime",
	FormatMKV:  "video/x-matroska",
	FormatAVI:  "video/x-msvideo",
	FormatWEBM: "video/webm",
}

// MediaInfo contains metadata about a media file
type MediaInfo struct {
	FilePath   string  `json:"file_path"`
	Format     Format  `json:"format"`
	MimeType   string  `json:"mime_type"`
	Duration   float64 `json:"duration"` // seconds
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
	BitRate    int     `json:"bit_rate,omitempty"`
	Size       int64   `json:"size,omitempty"`
	IsVideo    bool    `json:"is_video"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
}

// DetectFormat detects the format from the file extension
func DetectFormat(filePath string) Format {
	f := Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), "."))
	if _, ok := mimeTypes[f]; ok {
		return f
	}
	return ""
}

// GetMimeType returns the MIME type for a format
func GetMimeType(format Format) string {
	if mime, ok := mimeTypes[format]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsVideoFormat reports whether the format carries a video stream
func IsVideoFormat(format Format) bool {
	return strings.HasPrefix(GetMimeType(format), "video/")
}
