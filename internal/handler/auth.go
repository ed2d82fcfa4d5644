package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/service"
)

// AuthOptions configures the token cookie and the GitHub redirect target.
type AuthOptions struct {
	TokenTTL     time.Duration
	SecureCookie bool
	// AfterLoginURL is where the GitHub callback sends the browser.
	AfterLoginURL string
}

// AuthHandler manages accounts and sessions.
//
//	POST /api/auth/signup           create a password account
//	POST /api/auth/login            exchange email and password for a token
//	GET  /api/auth/me, /profile     the current user
//	POST /api/auth/logout           clear the token cookie
//	GET  /api/auth/github/login     redirect to GitHub
//	GET  /api/auth/github/callback  finish the GitHub flow
//
// Successful logins return the JWT in the body for API clients and also set
// it as an HttpOnly cookie for browsers.
type AuthHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider // nil when GitHub login is not configured
	opts   AuthOptions
	logger *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	github *auth.GitHubProvider,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthHandler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = auth.DefaultTTL
	}
	if opts.AfterLoginURL == "" {
		opts.AfterLoginURL = "/"
	}
	return &AuthHandler{auth: authSvc, github: github, opts: opts, logger: logger}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var credentialMessages = map[string]string{
	"email":    "Invalid email address",
	"password": "Password must be at least 6 characters",
}

type session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := checkStruct(&req, credentialMessages); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	writeData(w, http.StatusCreated, session{User: res.User, Token: res.Token})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := checkStruct(&req, map[string]string{
		"email":    "Invalid email address",
		"password": "Password is required",
	}); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	writeData(w, http.StatusOK, session{User: res.User, Token: res.Token})
}

// HandleMe returns the authenticated user. RequireUser has already loaded
// it, so this only reads the context.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		writeError(w, apperror.Unauthorized("No token provided"))
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

// HandleLogout deletes the cookie. The JWT itself stays valid until it
// expires; without the cookie the browser just stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Logged out"})
}

// HandleGitHubLogin stores a random state in a short-lived cookie and
// redirects to GitHub. The callback only proceeds when GitHub echoes the
// same state back.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(auth.StateCookieName)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookieName, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, h.opts.AfterLoginURL+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, apperror.Upstream("GitHub authentication failed", err))
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	http.Redirect(w, r, h.opts.AfterLoginURL, http.StatusSeeOther)
}

type userKey struct{}

// RequireUser loads the account behind the token that auth.RequireAuth
// accepted. A token whose user no longer exists is rejected with 401.
func (h *AuthHandler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserIDFromContext(r.Context())
		user, err := h.auth.GetUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func contextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFromContext(r *http.Request) (*model.User, bool) {
	u, ok := r.Context().Value(userKey{}).(*model.User)
	return u, ok && u != nil
}
