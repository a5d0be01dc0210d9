package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

func TestParseDragMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DragMode
		wantErr bool
	}{
		{in: "move", want: ModeMove},
		{in: "", want: ModeMove},
		{in: "resize-start", want: ModeResizeStart},
		{in: "RESIZE_END", want: ModeResizeEnd},
		{in: " resize-end ", want: ModeResizeEnd},
		{in: "rotate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDragMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDragScenarios(t *testing.T) {
	tests := []struct {
		name      string
		seg       timeline.Segment
		mode      DragMode
		delta     float64
		wantStart float64
		wantEnd   float64
	}{
		{
			name:      "move forward",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeMove,
			delta:     5,
			wantStart: 15,
			wantEnd:   17,
		},
		{
			name:      "resize end below start clamps to minimum duration",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeResizeEnd,
			delta:     -5,
			wantStart: 10,
			wantEnd:   10.1,
		},
		{
			name:      "move past the end pins to the right edge",
			seg:       timeline.Segment{Start: 95, End: 98},
			mode:      ModeMove,
			delta:     10,
			wantStart: 97,
			wantEnd:   100,
		},
		{
			name:      "move before zero pins to the left edge",
			seg:       timeline.Segment{Start: 3, End: 5},
			mode:      ModeMove,
			delta:     -10,
			wantStart: 0,
			wantEnd:   2,
		},
		{
			name:      "resize start earlier",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeResizeStart,
			delta:     -4,
			wantStart: 6,
			wantEnd:   12,
		},
		{
			name:      "resize start past end keeps minimum duration",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeResizeStart,
			delta:     50,
			wantStart: 11.9,
			wantEnd:   12,
		},
		{
			name:      "resize start below zero",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeResizeStart,
			delta:     -50,
			wantStart: 0,
			wantEnd:   12,
		},
		{
			name:      "resize end beyond duration",
			seg:       timeline.Segment{Start: 10, End: 12},
			mode:      ModeResizeEnd,
			delta:     500,
			wantStart: 10,
			wantEnd:   100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor := tt.seg.Start
			if tt.mode == ModeResizeEnd {
				anchor = tt.seg.End
			}
			got := ApplyDrag(tt.seg, tt.mode, anchor, tt.delta, 100)
			assert.InDelta(t, tt.wantStart, got.Start, 1e-9)
			assert.InDelta(t, tt.wantEnd, got.End, 1e-9)
		})
	}
}

func TestApplyDragZeroDeltaIsExact(t *testing.T) {
	segments := []timeline.Segment{
		{Start: 0.1, End: 0.3},
		{Start: 1.7, End: 2.9},
		{Start: 33.333, End: 41.07},
		{Start: 0, End: 100},
	}
	for _, seg := range segments {
		for _, mode := range []DragMode{ModeMove, ModeResizeStart, ModeResizeEnd} {
			anchor := seg.Start
			if mode == ModeResizeEnd {
				anchor = seg.End
			}
			got := ApplyDrag(seg, mode, anchor, 0, 100)
			assert.Equal(t, seg.Start, got.Start, "mode %s", mode)
			assert.Equal(t, seg.End, got.End, "mode %s", mode)
		}
	}
}

func TestApplyDragMovePreservesDuration(t *testing.T) {
	seg := timeline.Segment{Start: 20.35, End: 23.8}
	duration := seg.End - seg.Start

	for delta := -25.0; delta <= 90; delta += 0.7 {
		got := ApplyDrag(seg, ModeMove, seg.Start, delta, 100)
		assert.InDelta(t, duration, got.End-got.Start, 1e-9, "delta %v", delta)
		assert.GreaterOrEqual(t, got.Start, 0.0)
		assert.LessOrEqual(t, got.End, 100.0)
	}
}

func TestApplyDragResizeNeverBelowMinimum(t *testing.T) {
	seg := timeline.Segment{Start: 40, End: 41}
	for delta := -200.0; delta <= 200; delta += 3.3 {
		start := ApplyDrag(seg, ModeResizeStart, seg.Start, delta, 100)
		assert.GreaterOrEqual(t, start.End-start.Start, timeline.MinDuration-1e-9)
		assert.GreaterOrEqual(t, start.Start, 0.0)

		end := ApplyDrag(seg, ModeResizeEnd, seg.End, delta, 100)
		assert.GreaterOrEqual(t, end.End-end.Start, timeline.MinDuration-1e-9)
		assert.LessOrEqual(t, end.End, 100.0)
	}
}

func TestApplyDragKeepsTextAndSpeaker(t *testing.T) {
	seg := timeline.Segment{Text: "hi", Speaker: "SPEAKER_01", Start: 1, End: 2}
	got := ApplyDrag(seg, ModeMove, 1, 3, 10)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, "SPEAKER_01", got.Speaker)
}

func TestDragControllerLifecycle(t *testing.T) {
	var d DragController
	assert.Equal(t, Idle, d.State())

	seg := timeline.Segment{Start: 10, End: 12}
	require.True(t, d.Begin(0, ModeMove, 100, seg))
	assert.Equal(t, Dragging, d.State())
	assert.False(t, d.Begin(1, ModeResizeEnd, 0, seg), "second pointer down is ignored")

	session, ok := d.Session()
	require.True(t, ok)
	assert.Equal(t, 0, session.Index)
	assert.Equal(t, 10.0, session.AnchorTime)

	toTime := func(dx float64) float64 { return dx / 10 }

	got, ok := d.Update(150, toTime, 100)
	require.True(t, ok)
	assert.Equal(t, 15.0, got.Start)

	// every update is computed from the original segment, so there is no drift
	got, _ = d.Update(120, toTime, 100)
	assert.Equal(t, 12.0, got.Start)
	assert.Equal(t, 14.0, got.End)

	ended, ok := d.End()
	require.True(t, ok)
	assert.Equal(t, 12.0, ended.Current.Start)
	assert.Equal(t, Idle, d.State())

	_, ok = d.End()
	assert.False(t, ok)
	_, ok = d.Update(10, toTime, 100)
	assert.False(t, ok)
}

func TestDragControllerResizeEndAnchor(t *testing.T) {
	var d DragController
	d.Begin(3, ModeResizeEnd, 0, timeline.Segment{Start: 1, End: 4})
	session, _ := d.Session()
	assert.Equal(t, 4.0, session.AnchorTime)

	assert.True(t, d.Abandon())
	assert.False(t, d.Abandon())
	assert.Equal(t, Idle, d.State())
}
