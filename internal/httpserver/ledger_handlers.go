package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turnledger/turnledger/internal/ledger"
)

// handleAuthorize authorizes and debits one message for the user. The
// message-handling collaborator calls this before invoking generation.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user id")
		return
	}

	authz, err := s.svc.AuthorizeAndDebit(r.Context(), userID)
	switch {
	case errors.Is(err, ledger.ErrQuotaExceeded):
		writeJSONError(w, http.StatusTooManyRequests, "daily limit reached and no paid balance")
		return
	case err != nil:
		s.logger.Printf("[ERROR] authorize user=%s: %v", userID, err)
		writeJSONError(w, http.StatusInternalServerError, "authorization failed")
		return
	}

	s.logger.Printf("[INFO] authorized user=%s via=%s remaining_free=%d remaining_paid=%d",
		userID, authz.Via, authz.RemainingFree, authz.RemainingPaid)
	writeJSON(w, http.StatusOK, authz)
}

// handleStatus reports balance, remaining free messages and vote streak.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user id")
		return
	}

	status, err := s.svc.Status(r.Context(), userID)
	if err != nil {
		s.logger.Printf("[ERROR] status user=%s: %v", userID, err)
		writeJSONError(w, http.StatusInternalServerError, "status query failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type manualGrantRequest struct {
	Amount   int64 `json:"amount"`
	TTLHours int   `json:"ttl_hours"`
}

// handleManualGrant credits a user outside the vote flow (operator surface).
func (s *Server) handleManualGrant(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user id")
		return
	}

	var req manualGrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	grant, err := s.svc.AddGrant(r.Context(), userID, req.Amount, time.Duration(req.TTLHours)*time.Hour, ledger.SourceManual)
	switch {
	case errors.Is(err, ledger.ErrInvalidGrant):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Printf("[ERROR] manual grant user=%s: %v", userID, err)
		writeJSONError(w, http.StatusInternalServerError, "grant failed")
		return
	}

	s.logger.Printf("[INFO] manual grant user=%s amount=%d ttl=%dh", userID, req.Amount, req.TTLHours)
	writeJSON(w, http.StatusCreated, grant)
}

// handleListPersonas lists the system persona names.
func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"personas": s.personas.System()})
}
