package handler

import (
	"encoding/json"
	"net/http"

	"crowddeck/internal/apperr"
	"crowddeck/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// LoginRequest is the request body for presenter login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions shared by the handlers.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error onto the wire: HTTP status from the error,
// body carrying the stable code.
func writeError(w http.ResponseWriter, err error) {
	writeErrorMsg(w, apperr.StatusOf(err), apperr.CodeOf(err), err.Error())
}

func writeErrorMsg(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeErrorMsg(w, http.StatusBadRequest, "VALIDATION_FAILED", message)
}
