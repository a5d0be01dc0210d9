package timeline

import (
	"fmt"
	"math"
	"strings"
)

// MinDuration is the shortest interval, in seconds, a segment may have at rest
const MinDuration = 0.1

// Segment represents one transcript interval
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Duration returns the length of the segment in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Timeline is an ordered collection of segments positioned within a fixed total duration.
// A Timeline is never mutated after construction; Replace returns a new value.
type Timeline struct {
	segments []Segment
	duration float64
}

// New creates a timeline from the given segments. The slice is copied.
func New(segments []Segment, totalDuration float64) *Timeline {
	copied := make([]Segment, len(segments))
	copy(copied, segments)
	return &Timeline{
		segments: copied,
		duration: sanitize(totalDuration),
	}
}

// Duration returns the total duration of the timeline in seconds
func (t *Timeline) Duration() float64 {
	return t.duration
}

// Len returns the number of segments
func (t *Timeline) Len() int {
	return len(t.segments)
}

// Get returns the segment at index i
func (t *Timeline) Get(i int) (Segment, bool) {
	if i < 0 || i >= len(t.segments) {
		return Segment{}, false
	}
	return t.segments[i], true
}

// Segments returns a copy of all segments in display order
func (t *Timeline) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Replace returns a new timeline with the segment at index i replaced by the
// validated form of seg. An out-of-range index returns the receiver unchanged.
func (t *Timeline) Replace(i int, seg Segment) *Timeline {
	if i < 0 || i >= len(t.segments) {
		return t
	}
	next := make([]Segment, len(t.segments))
	copy(next, t.segments)
	next[i] = Validate(seg, t.duration)
	return &Timeline{segments: next, duration: t.duration}
}

// Validate clamps a segment into [0, totalDuration] keeping at least MinDuration
// between start and end. It never fails.
func Validate(seg Segment, totalDuration float64) Segment {
	total := sanitize(totalDuration)
	start := sanitize(seg.Start)
	end := sanitize(seg.End)

	// start is capped so that start + MinDuration still fits in the timeline
	start = Clamp(start, 0, math.Max(0, total-MinDuration))
	lo := start + MinDuration
	if lo > total {
		// only reachable through rounding or a timeline shorter than MinDuration;
		// staying inside the timeline wins over the minimum length
		if total > start {
			end = total
		} else {
			end = lo
		}
	} else {
		end = Clamp(end, lo, total)
	}

	seg.Start = start
	seg.End = end
	return seg
}

// Verify reports every segment that violates 0 <= start < end <= duration
func (t *Timeline) Verify() error {
	var problems []string
	for i, seg := range t.segments {
		switch {
		case seg.Start < 0:
			problems = append(problems, fmt.Sprintf("segment %d: start %.3f is negative", i, seg.Start))
		case seg.End <= seg.Start:
			problems = append(problems, fmt.Sprintf("segment %d: end %.3f is not after start %.3f", i, seg.End, seg.Start))
		case seg.End > t.duration:
			problems = append(problems, fmt.Sprintf("segment %d: end %.3f exceeds duration %.3f", i, seg.End, t.duration))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid timeline: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Normalize returns a timeline in which every segment has been validated
func (t *Timeline) Normalize() *Timeline {
	next := make([]Segment, len(t.segments))
	for i, seg := range t.segments {
		next[i] = Validate(seg, t.duration)
	}
	return &Timeline{segments: next, duration: t.duration}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
