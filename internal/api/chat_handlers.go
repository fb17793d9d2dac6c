package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// chatSendHandler runs one coaching exchange (POST /chat/send): assemble the
// user's context, persist the user turn, generate a reply, and persist the
// coach turn. The two turns are independent writes so a partial failure
// never loses the user's message.
func (s *Server) chatSendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatSendHandler: processing chat message", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatSendHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatSendHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatSendHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	cctx, err := s.assembler.Assemble(user.ID)
	if err != nil {
		slog.Error("Server.chatSendHandler: context assembly failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to assemble coaching context"))
		return
	}

	userMsg := &models.ChatMessage{
		UserID:  user.ID,
		Sender:  models.SenderUser,
		Content: req.Message,
	}
	if err := s.st.AddChatMessage(userMsg); err != nil {
		slog.Warn("Server.chatSendHandler: failed to persist user turn", "error", err, "userID", user.ID)
	}

	response := s.coach.Respond(r.Context(), cctx, req.Message)

	aiMsg := &models.ChatMessage{
		UserID:  user.ID,
		Sender:  models.SenderAI,
		Content: response,
	}
	if err := s.st.AddChatMessage(aiMsg); err != nil {
		// The reply was generated; surface it even if history could not be
		// written.
		slog.Warn("Server.chatSendHandler: failed to persist coach turn", "error", err, "userID", user.ID)
	}

	slog.Info("Server.chatSendHandler: exchange completed", "userID", user.ID, "messageID", aiMsg.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResponse{
		Response:  response,
		MessageID: aiMsg.ID,
		CreatedAt: aiMsg.CreatedAt,
	}))
}

// chatHistoryHandler lists past chat turns in chronological order
// (GET /chat/history?limit=N).
func (s *Server) chatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.chatHistoryHandler: processing history request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.chatHistoryHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	limit := parseLimitParam(r, defaultChatHistoryLimit)
	messages, err := s.st.ListChatMessages(user.ID, limit)
	if err != nil {
		slog.Error("Server.chatHistoryHandler: listing failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load chat history"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(messages))
}
