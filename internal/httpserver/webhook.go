package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// votePayload is the top.gg webhook body.
//
//	{"bot": "...", "user": "...", "type": "upvote"|"test", "isWeekend": bool}
//
// IsWeekend is a pointer so an absent field falls back to the calendar check
// instead of forcing a weekday reward.
type votePayload struct {
	Bot       string `json:"bot"`
	User      string `json:"user"`
	Type      string `json:"type"`
	IsWeekend *bool  `json:"isWeekend,omitempty"`
	Query     string `json:"query,omitempty"`
}

type voteResponse struct {
	Rewarded bool  `json:"rewarded"`
	Amount   int64 `json:"amount,omitempty"`
	Streak   int   `json:"streak,omitempty"`
}

// handleVoteWebhook receives vote notifications and forwards them to the
// reward engine, which suppresses duplicate deliveries within the vote window
// under the user's lock.
func (s *Server) handleVoteWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookAuth != "" && r.Header.Get("Authorization") != s.webhookAuth {
		s.logger.Printf("[WARN] vote webhook rejected: bad authorization")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload votePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.logger.Printf("[WARN] vote webhook rejected: %v", err)
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	userID := strings.TrimSpace(payload.User)
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user")
		return
	}
	if payload.Type != "upvote" && payload.Type != "test" {
		// Unknown event types are acknowledged and ignored.
		writeJSON(w, http.StatusOK, voteResponse{Rewarded: false})
		return
	}

	res, err := s.rewards.ProcessVote(r.Context(), userID, s.rewards.Now(), payload.IsWeekend)
	if err != nil {
		s.logger.Printf("[ERROR] vote processing user=%s: %v", userID, err)
		writeJSONError(w, http.StatusInternalServerError, "vote processing failed")
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{
		Rewarded: res.Rewarded,
		Amount:   res.Grant.AmountTotal,
		Streak:   res.Streak,
	})
}

const maxBodyBytes = 1 << 20 // 1MB

func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
