package transcript

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
)

// Document is a transcript file: the timed segments of one media file
type Document struct {
	Media    string             `json:"media,omitempty"`
	Language string             `json:"language,omitempty"`
	Duration float64            `json:"duration,omitempty"`
	Segments []timeline.Segment `json:"segments"`
}

// Load reads a transcript document from a JSON file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a transcript document
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Segments == nil {
		doc.Segments = []timeline.Segment{}
	}
	return &doc, nil
}

// ToJSON converts the document to JSON format
func (d *Document) ToJSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(d, "", "  ")
	}
	return json.Marshal(d)
}

// Save writes the document to path. The file is replaced atomically so that
// watchers never observe a partial write.
func (d *Document) Save(path string) error {
	log := logger.WithComponent("transcript").WithField("path", path)

	content, err := d.ToJSON(true)
	if err != nil {
		return fmt.Errorf("failed to format transcript: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set transcript permissions: %w", err)
	}

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace transcript: %w", err)
	}

	log.Debug().Int("segments", len(d.Segments)).Int("content_size", len(content)).Msg("Transcript saved")
	return nil
}

// TotalDuration returns the declared duration, or the largest segment end
// when none is declared
func (d *Document) TotalDuration() float64 {
	if d.Duration > 0 {
		return d.Duration
	}
	var end float64
	for _, seg := range d.Segments {
		if seg.End > end {
			end = seg.End
		}
	}
	return end
}

// Timeline returns the document's segments as a validated timeline
func (d *Document) Timeline() *timeline.Timeline {
	return timeline.New(d.Segments, d.TotalDuration()).Normalize()
}

// Hash returns the sha256 of a file's content
func Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
