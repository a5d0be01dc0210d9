package editor

import (
	"sync"
	"time"

	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transport"
)

// UpdateFunc receives the committed bounds of a segment at pointer-up
type UpdateFunc func(index int, start, end float64)

// ReorderFunc receives a reordered segment list
type ReorderFunc func(segments []timeline.Segment)

// Options configures an Editor
type Options struct {
	// OnSegmentUpdate is invoked exactly once per completed drag
	OnSegmentUpdate UpdateFunc

	// OnSegmentsReorder is reserved for a reordering gesture; no drag invokes it
	OnSegmentsReorder ReorderFunc

	// ShowWaveform is carried through to the rendered state and has no other effect
	ShowWaveform bool

	// Width reports the measured width of the timeline surface in pixels
	Width timeline.WidthFunc

	// Pointer delivers move and release events during a drag (default: a new Dispatcher)
	Pointer PointerSource

	// Scheduler drives the transport clock (default: wall-clock ticker)
	Scheduler transport.Scheduler

	// TickInterval overrides the clock period (default: 100ms)
	TickInterval time.Duration

	// Zoom is the initial zoom factor (default: 1.0)
	Zoom float64
}

// Editor is the interactive timeline editor: a segment collection, one drag
// controller and a transport clock sharing the time domain [0, duration].
// All methods are safe for concurrent use; host callbacks are never invoked
// while the editor lock is held.
type Editor struct {
	mu       sync.Mutex
	timeline *timeline.Timeline
	duration float64
	zoom     float64
	drag     DragController
	mapper   *timeline.Mapper
	clock    *transport.Clock
	pointer  PointerSource
	release  func()
	dragID   uint64
	closed   bool

	onUpdate     UpdateFunc
	onReorder    ReorderFunc
	showWaveform bool

	listenersMu  sync.Mutex
	listeners    map[int]func(State)
	nextListener int

	log *logger.Logger
}

// New mounts an editor over segments positioned within totalDuration seconds.
// Segments are clamped into the timeline; their order is kept as given.
func New(segments []timeline.Segment, totalDuration float64, opts Options) *Editor {
	pointer := opts.Pointer
	if pointer == nil {
		pointer = NewDispatcher()
	}
	zoom := timeline.DefaultZoom
	if opts.Zoom != 0 {
		zoom = timeline.NormalizeZoom(opts.Zoom)
	}

	e := &Editor{
		timeline:     timeline.New(segments, totalDuration).Normalize(),
		duration:     totalDuration,
		zoom:         zoom,
		mapper:       timeline.NewMapper(opts.Width),
		pointer:      pointer,
		onUpdate:     opts.OnSegmentUpdate,
		onReorder:    opts.OnSegmentsReorder,
		showWaveform: opts.ShowWaveform,
		listeners:    make(map[int]func(State)),
		log:          logger.WithComponent("editor"),
	}

	clockOpts := []transport.Option{
		transport.WithOnChange(func(transport.Snapshot) { e.notify() }),
	}
	if opts.TickInterval > 0 {
		clockOpts = append(clockOpts, transport.WithTickInterval(opts.TickInterval))
	}
	e.clock = transport.NewClock(opts.Scheduler, totalDuration, clockOpts...)

	e.log.Debug().
		Int("segments", e.timeline.Len()).
		Float64("duration", totalDuration).
		Float64("zoom", zoom).
		Msg("Editor mounted")

	return e
}

// Pointer returns the pointer source the editor captures during drags
func (e *Editor) Pointer() PointerSource {
	return e.pointer
}

// PointerDown starts a drag of the segment at index in the given mode with the
// pointer at x. It is ignored while another drag is active, for an unknown
// index, and after Close. Returns whether a drag was started.
func (e *Editor) PointerDown(index int, mode DragMode, x float64) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	seg, ok := e.timeline.Get(index)
	if !ok {
		e.mu.Unlock()
		e.log.Debug().Int("index", index).Msg("Pointer down on unknown segment ignored")
		return false
	}
	if !e.drag.Begin(index, mode, x, seg) {
		e.mu.Unlock()
		e.log.Debug().Int("index", index).Msg("Pointer down ignored, drag already active")
		return false
	}
	e.dragID++
	id := e.dragID
	e.mu.Unlock()

	release := e.pointer.Capture(PointerHandlers{
		Move: func(x float64) { e.pointerMove(id, x) },
		Up:   func() { e.pointerUp(id) },
	})

	e.mu.Lock()
	if e.dragID != id || e.drag.State() != Dragging {
		// the session ended before the capture was installed
		e.mu.Unlock()
		release()
		return false
	}
	e.release = release
	e.mu.Unlock()

	e.log.Debug().
		Int("index", index).
		Str("mode", string(mode)).
		Float64("x", x).
		Msg("Drag started")
	e.notify()
	return true
}

func (e *Editor) pointerMove(id uint64, x float64) {
	e.mu.Lock()
	if e.dragID != id || e.drag.State() != Dragging {
		e.mu.Unlock()
		return
	}
	zoom, duration := e.zoom, e.duration
	seg, _ := e.drag.Update(x, func(dx float64) float64 {
		return e.mapper.OffsetToTime(dx, zoom, duration)
	}, duration)
	session, _ := e.drag.Session()
	// live feedback: the candidate is placed directly, validation happens at commit
	e.timeline = e.replaceRaw(session.Index, seg)
	e.mu.Unlock()

	e.notify()
}

func (e *Editor) pointerUp(id uint64) {
	e.mu.Lock()
	if e.dragID != id {
		e.mu.Unlock()
		return
	}
	session, ok := e.drag.End()
	release := e.release
	e.release = nil
	if ok {
		e.timeline = e.timeline.Replace(session.Index, session.Current)
		session.Current, _ = e.timeline.Get(session.Index)
	}
	onUpdate := e.onUpdate
	e.mu.Unlock()

	if release != nil {
		release()
	}
	if !ok {
		return
	}

	e.log.Info().
		Int("index", session.Index).
		Str("mode", string(session.Mode)).
		Float64("start", session.Current.Start).
		Float64("end", session.Current.End).
		Msg("Segment edit committed")

	if onUpdate != nil {
		onUpdate(session.Index, session.Current.Start, session.Current.End)
	}
	e.notify()
}

// replaceRaw swaps the segment at index without clamping. Caller holds e.mu.
func (e *Editor) replaceRaw(index int, seg timeline.Segment) *timeline.Timeline {
	segments := e.timeline.Segments()
	if index < 0 || index >= len(segments) {
		return e.timeline
	}
	segments[index] = seg
	return timeline.New(segments, e.duration)
}

// SetSegments replaces the whole segment list with external data. An active
// drag is abandoned without commit.
func (e *Editor) SetSegments(segments []timeline.Segment) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	abandoned := e.drag.Abandon()
	release := e.release
	e.release = nil
	e.dragID++
	e.timeline = timeline.New(segments, e.duration).Normalize()
	count := e.timeline.Len()
	e.mu.Unlock()

	if release != nil {
		release()
	}
	if abandoned {
		e.log.Info().Msg("External segment update abandoned active drag")
	}
	e.log.Debug().Int("segments", count).Msg("Segments replaced")
	e.notify()
}

// Seek moves the playhead to the time under pointer x. Ignored during a drag.
func (e *Editor) Seek(x float64) bool {
	e.mu.Lock()
	if e.closed || e.drag.State() == Dragging {
		e.mu.Unlock()
		return false
	}
	t := e.mapper.OffsetToTime(x, e.zoom, e.duration)
	e.mu.Unlock()

	e.clock.Seek(t)
	return true
}

// SeekTime moves the playhead to t seconds
func (e *Editor) SeekTime(t float64) {
	e.clock.Seek(t)
}

// Play starts the transport clock. Ignored after Close.
func (e *Editor) Play() {
	if e.isClosed() {
		return
	}
	e.clock.Start()
}

// Pause stops the transport clock
func (e *Editor) Pause() {
	e.clock.Stop()
}

// TogglePlayback starts or stops the transport clock
func (e *Editor) TogglePlayback() {
	if e.isClosed() {
		return
	}
	e.clock.Toggle()
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// ZoomIn increases the zoom by one step. Returns false at the upper bound.
func (e *Editor) ZoomIn() bool {
	return e.setZoom(timeline.ZoomIn)
}

// ZoomOut decreases the zoom by one step. Returns false at the lower bound.
func (e *Editor) ZoomOut() bool {
	return e.setZoom(timeline.ZoomOut)
}

func (e *Editor) setZoom(step func(float64) float64) bool {
	e.mu.Lock()
	next := step(e.zoom)
	changed := next != e.zoom
	e.zoom = next
	e.mu.Unlock()

	if changed {
		e.notify()
	}
	return changed
}

// Segments returns a copy of the current segments, including any live drag candidate
func (e *Editor) Segments() []timeline.Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Segments()
}

// CommittedSegments returns the segments at rest: a segment under an active
// drag is reported as it was at pointer-down
func (e *Editor) CommittedSegments() []timeline.Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	segments := e.timeline.Segments()
	if session, ok := e.drag.Session(); ok && session.Index >= 0 && session.Index < len(segments) {
		segments[session.Index] = session.Original
	}
	return segments
}

// Duration returns the total timeline duration in seconds
func (e *Editor) Duration() float64 {
	return e.duration
}

// DragState returns whether a drag is in progress
func (e *Editor) DragState() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.State()
}

// Subscribe registers fn to receive the editor state after every change.
// The returned func removes the subscription.
func (e *Editor) Subscribe(fn func(State)) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn

	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, id)
	}
}

// Close tears the editor down: any drag capture is released without commit,
// the clock is stopped and subscribers are dropped.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.drag.Abandon()
	e.dragID++
	release := e.release
	e.release = nil
	e.mu.Unlock()

	if release != nil {
		release()
	}
	e.clock.Close()

	e.listenersMu.Lock()
	e.listeners = make(map[int]func(State))
	e.listenersMu.Unlock()

	e.log.Debug().Msg("Editor closed")
}

func (e *Editor) notify() {
	e.listenersMu.Lock()
	if len(e.listeners) == 0 {
		e.listenersMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.listenersMu.Unlock()

	state := e.State()
	for _, fn := range fns {
		fn(state)
	}
}
