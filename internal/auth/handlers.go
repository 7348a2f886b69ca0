package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "letzchat_session"

// Handler serves the signup, login and logout endpoints.
type Handler struct {
	users    *UserStore
	sessions SessionStore
}

// NewHandler creates an auth Handler.
func NewHandler(users *UserStore, sessions SessionStore) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
	}
}

// UserFromRequest resolves the verified username for a request from its
// session cookie.
func (h *Handler) UserFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	s, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return "", false
	}
	return s.Username, true
}

// HandleSignup registers a new account from a username/password form.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := HashPassword(password)
	if err != nil {
		log.Printf("auth: failed to hash password: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.users.Create(r.Context(), username, hash); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			http.Error(w, "username already exists", http.StatusConflict)
			return
		}
		log.Printf("auth: failed to create user: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogin verifies credentials and sets the session cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	u, err := h.users.ByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Printf("auth: failed to look up user: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !VerifyPassword(password, u.PasswordHash) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s := h.sessions.Create(u.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/chat.html", http.StatusSeeOther)
}

// HandleLogout deletes the session and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
