// Package http provides the auth server's HTTP handlers: phone login and
// verification code dispatch.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/middleware"
	"github.com/atinyakov/chatdemo/internal/models"
	"github.com/atinyakov/chatdemo/internal/service"
)

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// SendCode sends a verification code to phone.
	SendCode(ctx context.Context, phone string) error
	// Login exchanges a verification code for a chat login token.
	Login(ctx context.Context, phone, code string) (models.LoginResult, error)
}

// AuthHandler handles login and SMS requests.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// LoginRequest is the JSON payload of a phone login.
type LoginRequest struct {
	Phone string `json:"phoneNumber"`
	Code  string `json:"smsCode"`
}

type errorResponse struct {
	ErrorInfo string `json:"errorInfo"`
}

// Login handles POST {"phoneNumber", "smsCode"} and answers with the chat
// credentials on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// SendSMS handles POST .../{phone}/ with an empty body.
func (h *AuthHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if err := h.AuthService.SendCode(r.Context(), phone); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// fail maps a service error to its status and client-facing text.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var limit *service.DailyLimitError
	switch {
	case errors.Is(err, service.ErrPhoneIllegal):
		writeError(w, http.StatusBadRequest, "phone number illegal")
	case errors.Is(err, service.ErrCodeNotSent):
		writeError(w, http.StatusBadRequest, "Please send SMS to get mobile phone verification code.")
	case errors.Is(err, service.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "SMS verification code error.")
	case errors.Is(err, service.ErrSendTooFrequent):
		writeError(w, http.StatusTooManyRequests, "Please wait a moment while trying to send.")
	case errors.As(err, &limit):
		writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Sorry, exceed the limit of %d per day.", limit.Limit))
	default:
		middleware.LoggerFromContext(r.Context()).Error("auth request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, info string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{ErrorInfo: info})
}
