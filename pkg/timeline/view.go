package timeline

import "math"

// Zoom bounds and step for the timeline view
const (
	MinZoom     = 0.5
	MaxZoom     = 4.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// ViewState describes how the timeline is presented
type ViewState struct {
	ZoomFactor  float64 `json:"zoom_factor"`
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
}

// CanZoomIn reports whether ZoomIn would change z
func CanZoomIn(z float64) bool {
	return NormalizeZoom(z) < MaxZoom
}

// CanZoomOut reports whether ZoomOut would change z
func CanZoomOut(z float64) bool {
	return NormalizeZoom(z) > MinZoom
}

// ZoomIn increases z by one step, clamped to MaxZoom
func ZoomIn(z float64) float64 {
	return NormalizeZoom(NormalizeZoom(z) + ZoomStep)
}

// ZoomOut decreases z by one step, clamped to MinZoom
func ZoomOut(z float64) float64 {
	return NormalizeZoom(NormalizeZoom(z) - ZoomStep)
}

// NormalizeZoom snaps z to the nearest step and clamps it into [MinZoom, MaxZoom]
func NormalizeZoom(z float64) float64 {
	if math.IsNaN(z) || z == 0 {
		return DefaultZoom
	}
	snapped := math.Round(z/ZoomStep) * ZoomStep
	return Clamp(snapped, MinZoom, MaxZoom)
}
