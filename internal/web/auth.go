package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/lostfound/internal/auth"
)

const sessionCookie = "lostfound_session"

type contextKey string

const adminClaimsKey contextKey = "admin_claims"

// requireAdmin validates the session cookie and adds its claims to the
// request context. Unauthenticated requests are sent to the login page.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			s.redirectToLogin(w, r)
			return
		}

		claims, err := auth.ValidateToken(s.opts.JWTSecret, cookie.Value)
		if err != nil {
			s.logger.Debug("rejected admin session", "error", err)
			s.clearSessionCookie(w)
			s.redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectToLogin uses HX-Redirect for htmx requests, which would otherwise
// swap the login page into the fragment target.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/admin/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func adminClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(adminClaimsKey).(*auth.Claims)
	return claims
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, username, msg string) {
	if err := s.renderPage(w, status,
		map[string]any{"Username": username, "Error": msg, "ActiveNav": "admin"},
		"base.html", "pages/login.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, http.StatusOK, "", "")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.renderLogin(w, http.StatusBadRequest, username, "Enter your username and password.")
		return
	}

	admin, err := s.admins.GetByUsername(r.Context(), username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if admin == nil {
		s.logger.Info("login failed", "username", username, "reason", "unknown user")
		s.renderLogin(w, http.StatusUnauthorized, username, "Wrong username or password.")
		return
	}
	if err := auth.CheckPassword(admin.PasswordHash, password); err != nil {
		s.logger.Info("login failed", "username", username, "reason", "bad password")
		s.renderLogin(w, http.StatusUnauthorized, username, "Wrong username or password.")
		return
	}

	token, err := auth.GenerateToken(s.opts.JWTSecret, admin.ID, admin.Username, time.Now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
	s.logger.Info("admin logged in", "username", admin.Username)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
