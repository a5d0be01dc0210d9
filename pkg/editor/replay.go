package editor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transport"
)

// ScriptEvent is one recorded input to an editor
type ScriptEvent struct {
	// Type is one of down, move, up, seek, seek_time, play, pause, toggle,
	// zoom, width, tick or replace
	Type      string             `json:"type"`
	Index     int                `json:"index,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	X         float64            `json:"x,omitempty"`
	Time      float64            `json:"time,omitempty"`
	Direction string             `json:"direction,omitempty"`
	Width     float64            `json:"width,omitempty"`
	Millis    int64              `json:"ms,omitempty"`
	Segments  []timeline.Segment `json:"segments,omitempty"`
}

// ParseScript reads one JSON event per line. Blank lines and lines starting
// with # are skipped.
func ParseScript(r io.Reader) ([]ScriptEvent, error) {
	var events []ScriptEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var ev ScriptEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ev.Type == "" {
			return nil, fmt.Errorf("line %d: event type is required", line)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return events, nil
}

// Replayer drives an editor from recorded events on a manual clock, so a
// script always produces the same result
type Replayer struct {
	editor    *Editor
	pointer   *Dispatcher
	scheduler *transport.ManualScheduler

	mu    sync.Mutex
	width float64
}

// NewReplayer mounts an editor for replay. The Width, Pointer and Scheduler
// options are replaced by the replayer's own.
func NewReplayer(segments []timeline.Segment, totalDuration, width float64, opts Options) *Replayer {
	r := &Replayer{
		pointer:   NewDispatcher(),
		scheduler: transport.NewManualScheduler(),
		width:     width,
	}
	opts.Width = r.Width
	opts.Pointer = r.pointer
	opts.Scheduler = r.scheduler
	r.editor = New(segments, totalDuration, opts)
	return r
}

// Editor returns the replayed editor
func (r *Replayer) Editor() *Editor {
	return r.editor
}

// Width reports the simulated viewport width
func (r *Replayer) Width() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Apply feeds one event to the editor and reports whether it was accepted
func (r *Replayer) Apply(ev ScriptEvent) (bool, error) {
	switch strings.ToLower(ev.Type) {
	case "down":
		mode, err := ParseDragMode(ev.Mode)
		if err != nil {
			return false, err
		}
		return r.editor.PointerDown(ev.Index, mode, ev.X), nil
	case "move":
		return r.pointer.Move(ev.X), nil
	case "up":
		return r.pointer.Up(), nil
	case "seek":
		return r.editor.Seek(ev.X), nil
	case "seek_time":
		r.editor.SeekTime(ev.Time)
		return true, nil
	case "play":
		r.editor.Play()
		return true, nil
	case "pause":
		r.editor.Pause()
		return true, nil
	case "toggle":
		r.editor.TogglePlayback()
		return true, nil
	case "zoom":
		switch strings.ToLower(ev.Direction) {
		case "in":
			return r.editor.ZoomIn(), nil
		case "out":
			return r.editor.ZoomOut(), nil
		}
		return false, fmt.Errorf("zoom direction must be in or out, got %q", ev.Direction)
	case "width":
		if ev.Width <= 0 {
			return false, fmt.Errorf("width must be positive")
		}
		r.mu.Lock()
		r.width = ev.Width
		r.mu.Unlock()
		return true, nil
	case "tick":
		r.scheduler.Advance(time.Duration(ev.Millis) * time.Millisecond)
		return true, nil
	case "replace":
		r.editor.SetSegments(ev.Segments)
		return true, nil
	default:
		return false, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// Run applies events in order and returns how many were accepted. It stops
// at the first malformed event.
func (r *Replayer) Run(events []ScriptEvent) (int, error) {
	accepted := 0
	for i, ev := range events {
		ok, err := r.Apply(ev)
		if err != nil {
			return accepted, fmt.Errorf("event %d (%s): %w", i+1, ev.Type, err)
		}
		if ok {
			accepted++
		}
	}
	return accepted, nil
}

// Close unmounts the editor
func (r *Replayer) Close() {
	r.editor.Close()
}
