package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eternnoir/videocaps/pkg/editor"
	"github.com/eternnoir/videocaps/pkg/logger"
	"github.com/eternnoir/videocaps/pkg/subtitle"
	"github.com/eternnoir/videocaps/pkg/timeline"
	"github.com/eternnoir/videocaps/pkg/transcript"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.manager.Get(r.PathValue("id"))
		if err != nil {
			s.writeErr(w, err)
			return
		}
		h(w, r, sess)
	}
}

// SessionResponse is a session together with its render state
type SessionResponse struct {
	SessionInfo
	State editor.State `json:"state"`
}

// ActionResponse reports whether an input was accepted and the state after it
type ActionResponse struct {
	Accepted bool         `json:"accepted"`
	State    editor.State `json:"state"`
}

// StatusResponse describes the running server
type StatusResponse struct {
	Version  string        `json:"version"`
	Uptime   string        `json:"uptime"`
	Sessions []SessionInfo `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Version:  s.version,
		Uptime:   time.Since(s.started).Truncate(time.Second).String(),
		Sessions: s.manager.List(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]SessionInfo{"sessions": s.manager.List()})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.manager.Open(req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			logger.FromContext(r.Context()).Warn().Err(err).Str("transcript", req.Transcript).Msg("Rejected session open")
		} else {
			logger.ErrorCtx(r.Context()).Err(err).Str("transcript", req.Transcript).Msg("Failed to open session")
		}
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, SessionResponse{SessionInfo: sess.Info(), State: sess.Editor().State()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *Session) {
	s.writeJSON(w, http.StatusOK, SessionResponse{SessionInfo: sess.Info(), State: sess.Editor().State()})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Close(r.PathValue("id")); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replaceRequest struct {
	Segments []timeline.Segment `json:"segments"`
}

func (s *Server) handleReplaceSegments(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req replaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := sess.ReplaceSegments(req.Segments); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: true, State: sess.Editor().State()})
}

type viewportRequest struct {
	Width float64 `json:"width"`
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req viewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := sess.SetWidth(req.Width); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: true, State: sess.Editor().State()})
}

type pointerRequest struct {
	Type  string  `json:"type"`
	Index int     `json:"index"`
	Mode  string  `json:"mode"`
	X     float64 `json:"x"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req pointerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	var accepted bool
	switch strings.ToLower(req.Type) {
	case "down":
		mode, err := editor.ParseDragMode(req.Mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		accepted = sess.Editor().PointerDown(req.Index, mode, req.X)
	case "move":
		accepted = sess.Pointer().Move(req.X)
	case "up":
		accepted = sess.Pointer().Up()
	default:
		s.writeError(w, http.StatusBadRequest, "pointer type must be down, move or up")
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: accepted, State: sess.Editor().State()})
}

type seekRequest struct {
	X    *float64 `json:"x,omitempty"`
	Time *float64 `json:"time,omitempty"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req seekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	var accepted bool
	switch {
	case req.X != nil:
		accepted = sess.Editor().Seek(*req.X)
	case req.Time != nil:
		sess.Editor().SeekTime(*req.Time)
		accepted = true
	default:
		s.writeError(w, http.StatusBadRequest, "seek requires x or time")
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: accepted, State: sess.Editor().State()})
}

type zoomRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req zoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	var accepted bool
	switch strings.ToLower(req.Direction) {
	case "in":
		accepted = sess.Editor().ZoomIn()
	case "out":
		accepted = sess.Editor().ZoomOut()
	default:
		s.writeError(w, http.StatusBadRequest, "zoom direction must be in or out")
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: accepted, State: sess.Editor().State()})
}

func (s *Server) handlePlay(w http.ResponseWriter, _ *http.Request, sess *Session) {
	sess.Editor().Play()
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: true, State: sess.Editor().State()})
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request, sess *Session) {
	sess.Editor().Pause()
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: true, State: sess.Editor().State()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *Session) {
	query := r.URL.Query()

	format := s.format
	if raw := query.Get("format"); raw != "" {
		f, err := subtitle.ParseFormat(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	opts := s.export
	if raw := query.Get("speakers"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "speakers must be a boolean")
			return
		}
		opts.IncludeSpeaker = include
	}
	if raw := query.Get("clean"); raw != "" {
		clean, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "clean must be a boolean")
			return
		}
		opts.Clean = clean
	}

	content, err := sess.Export(format, opts)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

type burnRequest struct {
	Output string `json:"output,omitempty"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req burnRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeErr(w, err)
			return
		}
	}

	log := logger.FromContext(r.Context()).WithFields(map[string]interface{}{
		"session_id": sess.ID,
		"media":      sess.Media,
	})
	log.Info().Msg("Burning subtitles")

	out, err := sess.Burn(r.Context(), req.Output)
	if err != nil {
		log.WithError(err).Error().Msg("Subtitle burn failed")
		s.writeErr(w, err)
		return
	}
	logger.InfoCtx(r.Context()).Str("output", out).Msg("Subtitles burned")
	s.writeJSON(w, http.StatusOK, map[string]string{"output": out})
}

func (s *Server) handleEdits(w http.ResponseWriter, _ *http.Request, sess *Session) {
	edits, err := sess.Edits()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"edits": edits})
}

// InsightsResponse carries transcript statistics and the reading paragraphs
type InsightsResponse struct {
	transcript.Insights
	Paragraphs []transcript.Paragraph `json:"paragraphs"`
}

func (s *Server) handleInsights(w http.ResponseWriter, _ *http.Request, sess *Session) {
	segments := sess.Editor().CommittedSegments()
	paras := transcript.Paragraphs(segments)
	if paras == nil {
		paras = []transcript.Paragraph{}
	}
	s.writeJSON(w, http.StatusOK, InsightsResponse{
		Insights:   transcript.Analyze(segments),
		Paragraphs: paras,
	})
}
