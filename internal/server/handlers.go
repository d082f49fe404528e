package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yaungchi/assistant-go/internal/auth"
	"github.com/yaungchi/assistant-go/internal/chat"
	"github.com/yaungchi/assistant-go/internal/market"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/weather"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.PhoneNumber == "" {
		s.writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	// Code delivery via an SMS gateway is not wired; the code is returned
	// so development clients can complete the flow.
	code, err := s.auth.RequestCode(r.Context(), req.PhoneNumber)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not issue code")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Name        string `json:"name"`
		Code        string `json:"code"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), req.PhoneNumber, req.Name, req.Code)
	switch {
	case errors.Is(err, auth.ErrPhoneTaken):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCode):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "registration failed")
	default:
		s.writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Code        string `json:"code"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.auth.Login(r.Context(), req.PhoneNumber, req.Code)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCode):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "login failed")
	default:
		s.writeJSON(w, http.StatusOK, user)
	}
}

// --- users ---

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.dir.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		s.writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	if err := s.auth.UpdateLanguage(r.Context(), chi.URLParam(r, "userID"), req.Language); err != nil {
		s.writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"language": req.Language})
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := s.limits.CheckLimits(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "quota state unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, limits)
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.CurrentSubscription(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if sub == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"tier": models.TierFree})
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentReference string `json:"payment_reference"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.PaymentReference == "" {
		s.writeError(w, http.StatusBadRequest, "payment_reference is required")
		return
	}

	sub, err := s.auth.Upgrade(r.Context(), chi.URLParam(r, "userID"), req.PaymentReference)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "upgrade failed")
		return
	}
	s.writeJSON(w, http.StatusCreated, sub)
}

// --- conversations ---

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.dir.ListConversations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, conversations)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	conv, err := s.dir.CreateConversation(r.Context(), uuid.NewString(), chi.URLParam(r, "userID"), req.Language)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	s.writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	s.titlerCancel(conversationID)
	if err := s.dir.DeleteConversation(r.Context(), conversationID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenameConversation applies a manual title and drops any pending
// auto-title so the user's choice is never clobbered.
func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	s.titlerCancel(conversationID)

	if err := s.dir.UpdateConversationTitle(r.Context(), conversationID, req.Title); err != nil {
		s.writeError(w, http.StatusInternalServerError, "rename failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"title": req.Title})
}

func (s *Server) titlerCancel(conversationID string) {
	if s.titler != nil {
		s.titler.Cancel(conversationID)
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.dir.ListMessages(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, messages)
}

// handleSendMessage is the pipeline entry point.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string  `json:"user_id"`
		Content     string  `json:"content"`
		ImageBase64 string  `json:"image_base64,omitempty"`
		ImageURL    *string `json:"image_url,omitempty"`
		AudioURL    *string `json:"audio_url,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and content are required")
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		var err error
		image, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "image_base64 is not valid base64")
			return
		}
	}

	conversationID := chi.URLParam(r, "conversationID")
	result, err := s.pipeline.SendAndRespond(r.Context(), chat.SendRequest{
		UserID:         req.UserID,
		ConversationID: conversationID,
		Content:        req.Content,
		Image:          image,
		ImageURL:       req.ImageURL,
		AudioURL:       req.AudioURL,
	})
	switch {
	case errors.Is(err, chat.ErrInvalidID):
		s.writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	case errors.Is(err, chat.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	case errors.Is(err, chat.ErrQuotaExceeded):
		s.writeError(w, http.StatusTooManyRequests, "daily message limit reached")
		return
	case err != nil:
		s.log.Error("send message pipeline failed", "conversation", conversationID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not process message")
		return
	}

	s.hub.Publish(conversationID, result.UserMessage)
	s.hub.Publish(conversationID, result.AssistantMessage)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_message":       result.UserMessage,
		"assistant_message":  result.AssistantMessage,
		"source":             result.Source,
		"remaining_messages": result.Remaining,
		"is_paid_user":       result.IsPaidUser,
	})
}

// --- panels ---

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	data, err := s.weather.Current(r.Context(), userID, r.URL.Query().Get("location"))
	switch {
	case errors.Is(err, weather.ErrQuotaExceeded):
		s.writeError(w, http.StatusTooManyRequests, "daily weather query limit reached")
	case errors.Is(err, weather.ErrUnknownLocation):
		s.writeError(w, http.StatusBadRequest, "unknown location")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "weather unavailable")
	default:
		s.writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	prices, err := s.market.Prices(r.Context(), userID, r.URL.Query().Get("location"))
	switch {
	case errors.Is(err, market.ErrQuotaExceeded):
		s.writeError(w, http.StatusTooManyRequests, "daily market query limit reached")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "market prices unavailable")
	default:
		s.writeJSON(w, http.StatusOK, prices)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
