package handlers

import (
	"net/http"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/middleware"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// AuthHandler handles login, logout, and session introspection.
type AuthHandler struct {
	auth  ports.AuthService
	audit ports.AuditService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth ports.AuthService, audit ports.AuditService) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit}
}

// HandleLogin validates credentials and issues a session cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}

	token, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	})

	if h.audit != nil {
		h.audit.Log(r.Context(), domain.ActionLogin, creds.Username, "")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_in", "token": token})
}

// HandleLogout invalidates the session.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		h.auth.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}
