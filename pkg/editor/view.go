package editor

import (
	"github.com/eternnoir/videocaps/pkg/timeline"
)

// SegmentView is a segment positioned for rendering
type SegmentView struct {
	Index      int              `json:"index"`
	Segment    timeline.Segment `json:"segment"`
	Left       float64          `json:"left"`
	Width      float64          `json:"width"`
	Color      string           `json:"color"`
	Label      string           `json:"label"`
	StartLabel string           `json:"start_label"`
	EndLabel   string           `json:"end_label"`
	Dragging   bool             `json:"dragging"`
}

// DragInfo describes the active drag for rendering
type DragInfo struct {
	Index int      `json:"index"`
	Mode  DragMode `json:"mode"`
}

// State is everything a rendering layer needs to draw the editor
type State struct {
	Duration      float64            `json:"duration"`
	DurationLabel string             `json:"duration_label"`
	ViewportWidth float64            `json:"viewport_width"`
	ContentWidth  float64            `json:"content_width"`
	View          timeline.ViewState `json:"view"`
	TimeLabel     string             `json:"time_label"`
	Playhead      float64            `json:"playhead"`
	CanZoomIn     bool               `json:"can_zoom_in"`
	CanZoomOut    bool               `json:"can_zoom_out"`
	ShowWaveform  bool               `json:"show_waveform"`
	Drag          *DragInfo          `json:"drag,omitempty"`
	Segments      []SegmentView      `json:"segments"`
}

// State computes the current render state using the latest viewport measurement
func (e *Editor) State() State {
	e.mu.Lock()
	segments := e.timeline.Segments()
	zoom := e.zoom
	width := e.mapper.Width()
	session, dragging := e.drag.Session()
	showWaveform := e.showWaveform
	e.mu.Unlock()

	clock := e.clock.Snapshot()

	state := State{
		Duration:      e.duration,
		DurationLabel: timeline.FormatClock(e.duration),
		ViewportWidth: width,
		ContentWidth:  width * zoom,
		View: timeline.ViewState{
			ZoomFactor:  zoom,
			CurrentTime: clock.CurrentTime,
			IsPlaying:   clock.Playing,
		},
		TimeLabel:    timeline.FormatClock(clock.CurrentTime),
		Playhead:     timeline.TimeToOffset(clock.CurrentTime, width, zoom, e.duration),
		CanZoomIn:    timeline.CanZoomIn(zoom),
		CanZoomOut:   timeline.CanZoomOut(zoom),
		ShowWaveform: showWaveform,
		Segments:     make([]SegmentView, len(segments)),
	}
	if dragging {
		state.Drag = &DragInfo{Index: session.Index, Mode: session.Mode}
	}

	for i, seg := range segments {
		left := timeline.TimeToOffset(seg.Start, width, zoom, e.duration)
		right := timeline.TimeToOffset(seg.End, width, zoom, e.duration)
		state.Segments[i] = SegmentView{
			Index:      i,
			Segment:    seg,
			Left:       left,
			Width:      right - left,
			Color:      timeline.SpeakerColor(seg.Speaker),
			Label:      timeline.SpeakerLabel(seg.Speaker),
			StartLabel: timeline.FormatClock(seg.Start),
			EndLabel:   timeline.FormatClock(seg.End),
			Dragging:   dragging && session.Index == i,
		}
	}

	return state
}
