package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/salusdesk/salus/internal/chat"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/retrieval"
)

// maxChatBody caps chat request bodies at 64 KiB; questions are short.
const maxChatBody = 64 << 10

type chatHandler struct {
	orchestrator *chat.Orchestrator
	logger       log.Logger
}

// send answers one question. POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	resp, err := h.orchestrator.Handle(r.Context(), req)
	switch {
	case errors.Is(err, chat.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	case errors.Is(err, retrieval.ErrRetrieval):
		h.logger.Error("answering question", "error", err)
		writeError(w, http.StatusInternalServerError, "retrieval_failed", "could not retrieve an answer, please retry", h.logger)
		return
	case err != nil:
		h.logger.Error("answering question", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}
