package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
)

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Message)
	v := common.NewValidator().Field("message", question, common.Required, common.MaxLength(4000))
	if v.HasErrors() {
		if question == "" {
			writeError(w, "No message provided", http.StatusBadRequest)
			return
		}
		writeError(w, v.ErrorMessage(), http.StatusBadRequest)
		return
	}

	answer := s.responder.Respond(r.Context(), sess.Context(), question, sess.History.Turns())
	sess.History.AppendExchange(question, answer)
	if s.metrics != nil {
		s.metrics.ChatReplies.WithLabelValues(replyOutcome(answer)).Inc()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": answer,
		"html":    s.renderMarkdown(answer),
	})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).History.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		s.logger.Warn("http.chat.markdown_failed", "err", err)
		return ""
	}
	return buf.String()
}

func replyOutcome(answer string) string {
	switch {
	case answer == chat.ConfigWarning:
		return "not_configured"
	case answer == chat.CannotFind:
		return "not_found"
	case strings.HasPrefix(answer, "Error: "):
		return "error"
	default:
		return "ok"
	}
}
