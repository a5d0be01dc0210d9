package editor

import (
	"fmt"
	"math"
	"strings"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

// DragMode selects which bounds of a segment a drag affects
type DragMode string

const (
	ModeMove        DragMode = "move"
	ModeResizeStart DragMode = "resize-start"
	ModeResizeEnd   DragMode = "resize-end"
)

// ParseDragMode parses a mode name, accepting underscores as separators
func ParseDragMode(s string) (DragMode, error) {
	switch DragMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")) {
	case ModeMove, "":
		return ModeMove, nil
	case ModeResizeStart:
		return ModeResizeStart, nil
	case ModeResizeEnd:
		return ModeResizeEnd, nil
	default:
		return "", fmt.Errorf("unknown drag mode: %q", s)
	}
}

// DragState is the state of the drag controller
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// DragSession describes an in-progress manipulation of one segment
type DragSession struct {
	Index      int
	Mode       DragMode
	StartX     float64
	AnchorTime float64
	// Original is the segment as it was at pointer-down; every move is computed from it
	Original timeline.Segment
	// Current is the latest candidate produced by a move
	Current timeline.Segment
}

// DragController interprets a pointer stream against one segment at a time.
// The zero value is Idle and ready to use.
type DragController struct {
	session *DragSession
}

// State returns Idle or Dragging
func (d *DragController) State() DragState {
	if d.session == nil {
		return Idle
	}
	return Dragging
}

// Session returns a copy of the active session
func (d *DragController) Session() (DragSession, bool) {
	if d.session == nil {
		return DragSession{}, false
	}
	return *d.session, true
}

// Begin opens a session for seg at index. It returns false, leaving the
// current session untouched, when a drag is already active.
func (d *DragController) Begin(index int, mode DragMode, x float64, seg timeline.Segment) bool {
	if d.session != nil {
		return false
	}
	anchor := seg.Start
	if mode == ModeResizeEnd {
		anchor = seg.End
	}
	d.session = &DragSession{
		Index:      index,
		Mode:       mode,
		StartX:     x,
		AnchorTime: anchor,
		Original:   seg,
		Current:    seg,
	}
	return true
}

// Update applies the pointer position x. toTime converts a pixel delta into a
// time delta with the current viewport measurement and zoom.
func (d *DragController) Update(x float64, toTime func(deltaPixels float64) float64, totalDuration float64) (timeline.Segment, bool) {
	if d.session == nil {
		return timeline.Segment{}, false
	}
	deltaTime := toTime(x - d.session.StartX)
	d.session.Current = ApplyDrag(d.session.Original, d.session.Mode, d.session.AnchorTime, deltaTime, totalDuration)
	return d.session.Current, true
}

// End closes the session and returns it so that the caller can commit Current
func (d *DragController) End() (DragSession, bool) {
	if d.session == nil {
		return DragSession{}, false
	}
	s := *d.session
	d.session = nil
	return s, true
}

// Abandon drops the session without producing a result
func (d *DragController) Abandon() bool {
	active := d.session != nil
	d.session = nil
	return active
}

// ApplyDrag computes the candidate segment for a drag of original by deltaTime seconds.
// It is a pure function of its inputs.
func ApplyDrag(original timeline.Segment, mode DragMode, anchorTime, deltaTime, totalDuration float64) timeline.Segment {
	next := original

	switch mode {
	case ModeResizeStart:
		next.Start = timeline.Clamp(anchorTime+deltaTime, 0, original.End-timeline.MinDuration)
	case ModeResizeEnd:
		next.End = timeline.Clamp(anchorTime+deltaTime, original.Start+timeline.MinDuration, totalDuration)
	default:
		duration := original.End - original.Start
		start := math.Max(0, anchorTime+deltaTime)
		// shifting End instead of adding duration keeps a zero move exact
		end := original.End + (start - original.Start)
		if end > totalDuration {
			end = totalDuration
			start = end - duration
		}
		if start < 0 {
			start = 0
		}
		next.Start = start
		next.End = end
	}

	return next
}
