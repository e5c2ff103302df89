package http

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.deps.Chat.Send(r.Context(), userID(r.Context()), req.AvatarID, req.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	reply := ""
	if msg.AIResponse != nil {
		reply = *msg.AIResponse
	}
	s.writeJSON(w, http.StatusOK, ChatResponse{ID: msg.ID, Reply: reply, Timestamp: msg.Timestamp})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := s.deps.Chat.History(r.Context(), userID(r.Context()), r.URL.Query().Get("avatar_id"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []persistence.ChatMessage{}
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleDeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Chat.DeleteMessage(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Chat.Personas())
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req VoiceRequest
	if !s.decode(w, r, &req) {
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_audio", "audio must be base64 encoded")
		return
	}
	mime := req.MimeType
	if mime == "" {
		mime = "audio/webm"
	}
	text, err := s.deps.Chat.Transcribe(r.Context(), userID(r.Context()), audio, mime)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, VoiceResponse{Text: text})
}
