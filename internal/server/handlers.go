package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/analytics"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/internal/session"
	"github.com/hyperjump/lexilaw/internal/storage"
)

type caseView struct {
	models.CaseMetadata
	DisplayTitle string `json:"display_title"`
}

func viewCases(cases []models.CaseMetadata) []caseView {
	out := make([]caseView, len(cases))
	for i := range cases {
		out[i] = caseView{CaseMetadata: cases[i], DisplayTitle: cases[i].DisplayTitle()}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"general_store_chunks": s.svc.GeneralChunks(),
		"cases":                s.library.Catalog().Len(),
	}
	cfg := s.config
	resp["config"] = map[string]interface{}{
		"embedding_provider":  cfg.Embedding.Provider,
		"embedding_model":     cfg.Embedding.Model,
		"generation_provider": cfg.Generation.Provider,
		"generation_model":    cfg.Generation.Model,
		"top_k":               cfg.Query.TopK,
		"interaction_log":     cfg.Log.Driver,
		"sessions":            cfg.Sessions.Backend,
	}
	if usage, err := storage.DiskUsage(cfg.Paths.ActsStore, cfg.Paths.CasesStore); err == nil {
		resp["store_disk_usage"] = usage
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cases, err := s.library.Search(r.Context(), q.Get("q"), q.Get("issue"))
	if err != nil {
		s.logger.Error("case search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"cases": viewCases(cases)})
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	issues := s.library.Catalog().Issues()
	if issues == nil {
		issues = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		s.respondError(w, http.StatusNotImplemented, "interaction log is not readable with driver "+s.config.Log.Driver)
		return
	}
	ins, err := analytics.Compute(r.Context(), s.log)
	if err != nil {
		s.logger.Error("insights failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, ins)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("session created", zap.String("id", sess.ID))
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type selectCaseRequest struct {
	Case string `json:"case"`
}

func (s *Server) handleSelectCase(w http.ResponseWriter, r *http.Request) {
	var req selectCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := rag.NormalizeCase(req.Case)
	if name != "" {
		if filepath.Base(name) != name {
			s.respondError(w, http.StatusBadRequest, "case must be a file name")
			return
		}
		if _, err := os.Stat(filepath.Join(s.config.Paths.CaseDir, name)); err != nil {
			s.respondError(w, http.StatusNotFound, "case not found")
			return
		}
	}

	defer s.lockSession(chi.URLParam(r, "id"))()
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if sess.SelectCase(name) {
		s.logger.Debug("case selected", zap.String("session", sess.ID), zap.String("case", name))
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

type askResponse struct {
	*rag.Answer
	SessionID string `json:"session_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	defer s.lockSession(chi.URLParam(r, "id"))()
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if req.Temperature != nil {
		sess.Temperature = req.Temperature
	}

	ans, err := s.svc.Ask(r.Context(), sess, req.Question)
	if err != nil {
		var turnErr *rag.TurnError
		if errors.As(err, &turnErr) {
			s.logger.Warn("turn failed", zap.String("session", sess.ID), zap.String("stage", string(turnErr.Stage)), zap.Error(turnErr.Err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.logger.Error("save session failed", zap.String("session", sess.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, askResponse{Answer: ans, SessionID: sess.ID})
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*rag.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
