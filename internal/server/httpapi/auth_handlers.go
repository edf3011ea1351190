package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkov/docvault/internal/common"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrorInvalidInput)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Message: "User not found"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    res.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful!",
		Token:   res.Token,
		IsAdmin: res.User.IsAdmin,
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrorInvalidInput)
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "Email and password are required"})
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, messageResponse{Message: "Registration successful"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	// expire the cookie either way
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully!"})
}
