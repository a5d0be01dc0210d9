package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeToOffset(t *testing.T) {
	tests := []struct {
		name  string
		time  float64
		width float64
		zoom  float64
		total float64
		want  float64
	}{
		{name: "start", time: 0, width: 1000, zoom: 1, total: 100, want: 0},
		{name: "middle", time: 50, width: 1000, zoom: 1, total: 100, want: 500},
		{name: "zoomed", time: 50, width: 1000, zoom: 2, total: 100, want: 1000},
		{name: "zoomed out", time: 100, width: 800, zoom: 0.5, total: 100, want: 400},
		{name: "zero duration", time: 10, width: 1000, zoom: 1, total: 0, want: 0},
		{name: "negative duration", time: 10, width: 1000, zoom: 1, total: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TimeToOffset(tt.time, tt.width, tt.zoom, tt.total), 1e-9)
		})
	}
}

func TestOffsetToTime(t *testing.T) {
	assert.InDelta(t, 50.0, OffsetToTime(500, 1000, 1, 100), 1e-9)
	assert.InDelta(t, 5.0, OffsetToTime(100, 1000, 2, 100), 1e-9)
	assert.InDelta(t, -5.0, OffsetToTime(-50, 1000, 1, 100), 1e-9)
	assert.Equal(t, 0.0, OffsetToTime(500, 1000, 1, 0))
	assert.Equal(t, 0.0, OffsetToTime(500, 0, 1, 100))
}

func TestMapperRoundTrip(t *testing.T) {
	widths := []float64{1, 320, 1000, 1920.5}
	zooms := []float64{0.5, 0.75, 1, 1.25, 2, 3.5, 4}
	durations := []float64{0.5, 1, 37.3, 100, 3600}

	for _, w := range widths {
		for _, z := range zooms {
			for _, d := range durations {
				for _, frac := range []float64{0, 0.1, 0.333, 0.5, 0.999, 1} {
					tm := d * frac
					got := OffsetToTime(TimeToOffset(tm, w, z, d), w, z, d)
					assert.InDelta(t, tm, got, 1e-9, "w=%v z=%v d=%v t=%v", w, z, d, tm)
				}
			}
		}
	}
}

func TestMapperReadsCurrentWidth(t *testing.T) {
	width := 1000.0
	m := NewMapper(func() float64 { return width })

	assert.InDelta(t, 500.0, m.TimeToOffset(50, 1, 100), 1e-9)

	width = 500
	assert.InDelta(t, 250.0, m.TimeToOffset(50, 1, 100), 1e-9)
	assert.InDelta(t, 50.0, m.OffsetToTime(250, 1, 100), 1e-9)
}

func TestMapperWithoutWidthSource(t *testing.T) {
	var m *Mapper
	assert.Equal(t, 0.0, m.Width())
	assert.Equal(t, 0.0, NewMapper(nil).OffsetToTime(100, 1, 100))
}
