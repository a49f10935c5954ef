package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"carebase.org/internal/audit"
	"carebase.org/internal/auth"
)

const refreshCookieName = "refreshToken"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.auth.Register(r.Context(), req)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"username": resp.Username,
		"role":     resp.Role,
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, refresh, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	// The refresh token travels only as a cookie scoped to the refresh
	// endpoint; clients never see it in the body.
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/api/auth/refresh",
		MaxAge:   a.auth.RefreshTTL(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	_ = audit.LogEvent(r.Context(), "auth.user.login", map[string]any{
		"username": resp.Username,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, r, http.StatusUnauthorized, "refresh token is missing")
		return
	}
	access, err := a.auth.RefreshAccessToken(r.Context(), cookie.Value)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

// handleUserResource routes /api/users/{id}. Only deletion is exposed; it is
// gated on the USER:DELETE permission rather than a role.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	sc, ok := a.requirePermission(w, r, auth.PermUserDelete)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(path)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := a.auth.DeleteUser(r.Context(), targetID, sc.UserID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.deleted", map[string]any{
		"target_id": targetID.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}
