package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/editor"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/media"
	"github.com/eternnoir/videocaps/pkg/store"
	"github.com/eternnoir/videocaps/pkg/subtitle"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
	"github.com/eternnoir/videocaps/pkg/transport"
	"github.com/eternnoir/videocaps/pkg/watcher"
)

var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidRequest marks errors caused by the caller's input
	ErrInvalidRequest = errors.New("invalid request")
)

// ManagerOptions wires the collaborators of a Manager. Store, Watcher and
// Media are optional.
type ManagerOptions struct {
	Editor  config.EditorConfig
	Export  subtitle.Options
	Store   *store.Store
	Watcher *watcher.TranscriptWatcher
	Media   *media.Processor

	// Scheduler drives every session clock (default: wall-clock ticker)
	Scheduler transport.Scheduler
}

// OpenRequest describes a transcript to open for editing
type OpenRequest struct {
	Transcript string  `json:"transcript"`
	Media      string  `json:"media,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Width      float64 `json:"width,omitempty"`
}

// SessionInfo summarises an open session
type SessionInfo struct {
	ID         string    `json:"id"`
	Transcript string    `json:"transcript"`
	Media      string    `json:"media,omitempty"`
	Duration   float64   `json:"duration"`
	Segments   int       `json:"segments"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manager is the registry of open editing sessions
type Manager struct {
	opts ManagerOptions

	mu       sync.RWMutex
	sessions map[string]*Session
	byPath   map[string]string
}

// NewManager creates an empty session registry
func NewManager(opts ManagerOptions) *Manager {
	if opts.Editor.ViewportWidth <= 0 {
		opts.Editor.ViewportWidth = config.DefaultConfig().Editor.ViewportWidth
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		byPath:   make(map[string]string),
	}
}

// Open mounts an editor over a transcript file. Opening a transcript that is
// already open returns the existing session. Edits journaled by an earlier
// session but never written back are replayed first.
func (m *Manager) Open(req OpenRequest) (*Session, error) {
	if req.Transcript == "" {
		return nil, fmt.Errorf("%w: transcript path is required", ErrInvalidRequest)
	}
	path, err := filepath.Abs(req.Transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if s := m.lookupPath(path); s != nil {
		return s, nil
	}

	log := logger.WithComponent("sessions").WithField("transcript", path)

	doc, err := transcript.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	mediaPath := req.Media
	if mediaPath == "" && doc.Media != "" {
		mediaPath = doc.Media
		if !filepath.IsAbs(mediaPath) {
			mediaPath = filepath.Join(filepath.Dir(path), mediaPath)
		}
	}

	duration := req.Duration
	if duration <= 0 && mediaPath != "" && m.opts.Media != nil {
		d, err := m.opts.Media.Duration(mediaPath)
		switch {
		case err == nil:
			duration = d
		case req.Media != "":
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		default:
			log.Warn().Err(err).Str("media", mediaPath).Msg("Could not probe transcript media, using the transcript's duration")
		}
	}
	if duration <= 0 {
		duration = doc.TotalDuration()
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: transcript has no duration", ErrInvalidRequest)
	}

	tl := timeline.New(doc.Segments, duration).Normalize()
	prev, unsaved := m.unsavedEdits(path)
	if len(unsaved) > 0 {
		tl = store.ApplyEdits(tl, unsaved)
	}

	width := req.Width
	if width <= 0 {
		width = m.opts.Editor.ViewportWidth
	}

	s := &Session{
		ID:         uuid.NewString(),
		Transcript: path,
		Media:      mediaPath,
		CreatedAt:  time.Now().UTC(),
		doc:        docMeta{media: doc.Media, language: doc.Language, duration: doc.Duration},
		width:      width,
		pointer:    editor.NewDispatcher(),
		manager:    m,
	}
	s.editor = editor.New(tl.Segments(), duration, editor.Options{
		OnSegmentUpdate: s.commit,
		ShowWaveform:    m.opts.Editor.ShowWaveform,
		Width:           s.Width,
		Pointer:         s.pointer,
		Scheduler:       m.opts.Scheduler,
		TickInterval:    m.opts.Editor.TickInterval,
		Zoom:            m.opts.Editor.Zoom,
	})
	s.record = store.SessionRecord{
		ID:         s.ID,
		Transcript: path,
		Media:      mediaPath,
		Duration:   duration,
	}

	if m.opts.Store != nil {
		if err := m.opts.Store.SaveSession(s.record); err != nil {
			s.editor.Close()
			return nil, fmt.Errorf("failed to record session: %w", err)
		}
	}

	m.mu.Lock()
	if id, ok := m.byPath[path]; ok {
		// lost a race with a concurrent open of the same file
		existing := m.sessions[id]
		m.mu.Unlock()
		s.editor.Close()
		if m.opts.Store != nil {
			_ = m.opts.Store.DeleteSession(s.ID)
		}
		return existing, nil
	}
	m.sessions[s.ID] = s
	m.byPath[path] = s.ID
	m.mu.Unlock()

	if prev != nil {
		m.settleReplay(s, prev, unsaved)
	}

	if m.opts.Watcher != nil {
		if err := m.opts.Watcher.Watch(path, s.reload); err != nil {
			log.Warn().Err(err).Msg("Failed to watch transcript for external changes")
		}
	}

	log.Info().
		Str("session_id", s.ID).
		Int("segments", tl.Len()).
		Float64("duration", duration).
		Int("replayed_edits", len(unsaved)).
		Msg("Session opened")

	return s, nil
}

// unsavedEdits finds the record an earlier, no longer open session left for
// path and returns the edits it journaled but never wrote back
func (m *Manager) unsavedEdits(path string) (*store.SessionRecord, []store.Edit) {
	if m.opts.Store == nil {
		return nil, nil
	}
	prev, err := m.opts.Store.FindByTranscript(path)
	if err != nil {
		return nil, nil
	}
	m.mu.RLock()
	_, live := m.sessions[prev.ID]
	m.mu.RUnlock()
	if live {
		return nil, nil
	}

	edits, err := m.opts.Store.EditsSince(prev.ID, prev.SavedSeq)
	if err != nil {
		logger.WithComponent("sessions").Warn().Err(err).Str("session_id", prev.ID).Msg("Failed to read edit journal")
		return nil, nil
	}
	return prev, edits
}

// settleReplay makes the replayed edits durable for s, then retires prev.
// Edits that cannot be written to the transcript are journaled again under
// s; prev is kept when that fails too.
func (m *Manager) settleReplay(s *Session, prev *store.SessionRecord, edits []store.Edit) {
	log := logger.WithComponent("sessions").
		WithField("session_id", s.ID).
		WithField("previous_session_id", prev.ID)
	st := m.opts.Store

	if len(edits) > 0 {
		if err := s.writeBack(); err != nil {
			log.Warn().Err(err).Int("edits", len(edits)).Msg("Failed to write back replayed edits, keeping them journaled")
			for _, e := range edits {
				if _, err := st.RecordEdit(s.ID, store.Edit{Index: e.Index, Start: e.Start, End: e.End, At: e.At}); err != nil {
					log.Error().Err(err).Msg("Failed to move replayed edits, keeping the previous journal")
					return
				}
			}
		}
	}

	if err := st.DeleteSession(prev.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to retire previous session record")
	}
}

func (m *Manager) lookupPath(path string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byPath[path]; ok {
		return m.sessions[id]
	}
	return nil
}

// Get returns the open session with id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns every open session ordered by creation time
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close tears a session down. Its journal record is kept so that unsaved
// edits survive a failed write-back.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	delete(m.byPath, s.Transcript)
	m.mu.Unlock()

	if m.opts.Watcher != nil {
		m.opts.Watcher.Unwatch(s.Transcript)
	}
	s.editor.Close()

	logger.WithComponent("sessions").Info().Str("session_id", id).Msg("Session closed")
	return nil
}

// CloseAll closes every open session
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
}

// saveTranscript writes a transcript document; replaced in tests
var saveTranscript = func(doc *transcript.Document, path string) error {
	return doc.Save(path)
}

type docMeta struct {
	media    string
	language string
	duration float64
}

// Session binds one editor to a transcript file and, optionally, a media file
type Session struct {
	ID         string
	Transcript string
	Media      string
	CreatedAt  time.Time

	editor  *editor.Editor
	pointer *editor.Dispatcher
	manager *Manager

	mu     sync.Mutex
	width  float64
	doc    docMeta
	record store.SessionRecord

	// serialises transcript write-backs
	writeMu sync.Mutex
}

// Editor returns the session's editor
func (s *Session) Editor() *editor.Editor {
	return s.editor
}

// Pointer returns the dispatcher that delivers pointer moves and releases
func (s *Session) Pointer() *editor.Dispatcher {
	return s.pointer
}

// Width returns the last measured viewport width
func (s *Session) Width() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// SetWidth records a new viewport measurement
func (s *Session) SetWidth(width float64) error {
	if width <= 0 {
		return fmt.Errorf("%w: width must be positive", ErrInvalidRequest)
	}
	s.mu.Lock()
	s.width = width
	s.mu.Unlock()
	return nil
}

// Info summarises the session
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:         s.ID,
		Transcript: s.Transcript,
		Media:      s.Media,
		Duration:   s.editor.Duration(),
		Segments:   len(s.editor.Segments()),
		CreatedAt:  s.CreatedAt,
	}
}

// ReplaceSegments supplies new segment data from outside the editor and
// writes it to the transcript file
func (s *Session) ReplaceSegments(segments []timeline.Segment) error {
	s.editor.SetSegments(segments)
	return s.writeBack()
}

// Export renders the current segments as a subtitle file
func (s *Session) Export(format subtitle.Format, opts subtitle.Options) (string, error) {
	return subtitle.Render(format, s.editor.Segments(), opts)
}

// Burn renders the current segments into the session's video
func (s *Session) Burn(ctx context.Context, outputPath string) (string, error) {
	if s.Media == "" {
		return "", fmt.Errorf("%w: session has no media file", ErrInvalidRequest)
	}
	if s.manager.opts.Media == nil {
		return "", fmt.Errorf("%w: media processing is not available", ErrInvalidRequest)
	}
	return s.manager.opts.Media.BurnSubtitles(ctx, s.Media, s.editor.Segments(), outputPath)
}

// Edits returns the session's journal
func (s *Session) Edits() ([]store.Edit, error) {
	if s.manager.opts.Store == nil {
		return []store.Edit{}, nil
	}
	edits, err := s.manager.opts.Store.Edits(s.ID)
	if err != nil {
		return nil, err
	}
	if edits == nil {
		edits = []store.Edit{}
	}
	return edits, nil
}

// commit journals a finished drag and writes the transcript back
func (s *Session) commit(index int, start, end float64) {
	log := logger.WithComponent("sessions").WithField("session_id", s.ID)
	st := s.manager.opts.Store

	var seq uint64
	if st != nil {
		var err error
		seq, err = st.RecordEdit(s.ID, store.Edit{Index: index, Start: start, End: end})
		if err != nil {
			log.Error().Err(err).Int("index", index).Msg("Failed to journal edit")
		}
	}

	if err := s.writeBack(); err != nil {
		log.Error().Err(err).Msg("Failed to write back transcript, edit kept in journal")
		return
	}

	if st != nil && seq > 0 {
		s.mu.Lock()
		if seq > s.record.SavedSeq {
			s.record.SavedSeq = seq
		}
		rec := s.record
		s.mu.Unlock()
		if err := st.SaveSession(rec); err != nil {
			log.Warn().Err(err).Msg("Failed to update session record")
		}
	}
}

func (s *Session) writeBack() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	meta := s.doc
	s.mu.Unlock()

	doc := &transcript.Document{
		Media:    meta.media,
		Language: meta.language,
		Duration: meta.duration,
		Segments: s.editor.Segments(),
	}
	if err := saveTranscript(doc, s.Transcript); err != nil {
		return err
	}
	if w := s.manager.opts.Watcher; w != nil {
		w.MarkWritten(s.Transcript)
	}
	return nil
}

// reload receives a transcript rewritten by another program
func (s *Session) reload(_ string, doc *transcript.Document) {
	s.mu.Lock()
	s.doc = docMeta{media: doc.Media, language: doc.Language, duration: doc.Duration}
	s.mu.Unlock()

	s.editor.SetSegments(doc.Segments)
}
