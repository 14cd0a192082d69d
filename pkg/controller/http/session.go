package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/lectio-dev/lectio/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type sessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type sessionsResponse struct {
	TotalSessions int                     `json:"total_sessions"`
	Sessions      []*model.SessionSummary `json:"sessions"`
}

// sessionID resolves the session ID from the header, then an optional JSON body, then the query string
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id, nil
	}

	if r.Body != nil {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
		if err != nil {
			return "", goerr.Wrap(errBadRequest, "failed to read request body")
		}
		if len(bytes.TrimSpace(data)) > 0 {
			var req sessionRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return "", goerr.Wrap(errBadRequest, err.Error())
			}
			if id := strings.TrimSpace(req.SessionID); id != "" {
				return id, nil
			}
		}
	}

	return strings.TrimSpace(r.URL.Query().Get("session_id")), nil
}

func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Session.Reset(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, sessionResponse{
		Message:   "session reset",
		SessionID: id,
	})
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.uc.Session.Delete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, sessionResponse{
		Message:   "session deleted",
		SessionID: id,
	})
}

// sessionsHandler describes one session when an ID is given, otherwise every session
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("session_id"))
	}

	if id != "" {
		summary, err := s.uc.Session.Summary(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		safe.WriteJSON(r.Context(), w, http.StatusOK, summary)
		return
	}

	summaries, err := s.uc.Session.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	safe.WriteJSON(r.Context(), w, http.StatusOK, sessionsResponse{
		TotalSessions: len(summaries),
		Sessions:      summaries,
	})
}
