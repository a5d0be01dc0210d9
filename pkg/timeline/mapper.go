package timeline

// TimeToOffset converts a time in seconds to a horizontal pixel offset within a
// viewport of the given width stretched by zoomFactor.
// It returns 0 when totalDuration is not positive.
func TimeToOffset(time, viewportWidth, zoomFactor, totalDuration float64) float64 {
	if totalDuration <= 0 {
		return 0
	}
	return (time / totalDuration) * viewportWidth * zoomFactor
}

// OffsetToTime is the inverse of TimeToOffset.
// It returns 0 when totalDuration or the scaled width is not positive.
func OffsetToTime(pixels, viewportWidth, zoomFactor, totalDuration float64) float64 {
	scaled := viewportWidth * zoomFactor
	if totalDuration <= 0 || scaled <= 0 {
		return 0
	}
	return (pixels / scaled) * totalDuration
}

// WidthFunc reports the current measured width of the rendering surface.
// It is called on every conversion so that resizes are picked up immediately.
type WidthFunc func() float64

// Mapper binds the coordinate conversions to a width source
type Mapper struct {
	width WidthFunc
}

// NewMapper creates a mapper reading the viewport width from fn
func NewMapper(fn WidthFunc) *Mapper {
	return &Mapper{width: fn}
}

// Width returns the currently measured width, 0 when no source is set
func (m *Mapper) Width() float64 {
	if m == nil || m.width == nil {
		return 0
	}
	return m.width()
}

// TimeToOffset converts using the current measured width
func (m *Mapper) TimeToOffset(time, zoomFactor, totalDuration float64) float64 {
	return TimeToOffset(time, m.Width(), zoomFactor, totalDuration)
}

// OffsetToTime converts using the current measured width
func (m *Mapper) OffsetToTime(pixels, zoomFactor, totalDuration float64) float64 {
	return OffsetToTime(pixels, m.Width(), zoomFactor, totalDuration)
}
