package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"taskdeck/internal/app"
	"taskdeck/internal/ratelimit"
	"taskdeck/internal/token"
	"taskdeck/internal/util"
	"taskdeck/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Tokens         *token.Manager
	SignupLimiter  *ratelimit.FixedWindowLimiter
	SigninLimiter  *ratelimit.FixedWindowLimiter
	MaxUploadBytes int64
}

// Server exposes the dashboard HTTP endpoints.
type Server struct {
	app            *app.App
	tokens         *token.Manager
	mux            *http.ServeMux
	maxUploadBytes int64
	signupLimiter  *ratelimit.FixedWindowLimiter
	signinLimiter  *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires an app")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("server requires a token manager")
	}
	s := &Server{
		app:            cfg.App,
		tokens:         cfg.Tokens,
		mux:            http.NewServeMux(),
		maxUploadBytes: normalizeMaxBytes(cfg.MaxUploadBytes),
		signupLimiter:  cfg.SignupLimiter,
		signinLimiter:  cfg.SigninLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/users/sign_up", s.handleSignUp)
	s.mux.HandleFunc("/users/sign_in", s.handleSignIn)
	s.mux.Handle("/users/me", s.authenticated(s.handleMe))

	// dashboard
	s.mux.Handle("/dashboard", s.authenticated(s.handleDashboard))
	s.mux.Handle("/dashboard/progress", s.authenticated(s.handleDashboardProgress))
	s.mux.Handle("/dashboard/history", s.authenticated(s.handleDashboardHistory))
	s.mux.Handle("/dashboard/create", s.authenticated(s.handleDashboardCreate))
	s.mux.Handle("/dashboard/modify", s.authenticated(s.handleDashboardModify))
	s.mux.Handle("/dashboard/delete", s.authenticated(s.handleDashboardDelete))
	s.mux.Handle("/dashboard/upload_file", s.authenticated(s.handleUploadFile))
	s.mux.Handle("/dashboard/download_file", s.authenticated(s.handleDownloadFile))
	s.mux.Handle("/dashboard/delete_file", s.authenticated(s.handleDeleteFile))

	// business contacts
	s.mux.Handle("/biz", s.authenticated(s.handleBiz))
	s.mux.Handle("/biz/detail", s.authenticated(s.handleBizDetail))
	s.mux.Handle("/biz/program", s.authenticated(s.handleBizProgram))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, map[string]string{"health": "ok"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

// authenticated verifies the bearer token and resolves the subject to a live
// user row before invoking the handler.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		subject, err := s.tokens.VerifySubject(tok)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.app.GetUser(subject)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many sign-up attempts") {
		return
	}
	var req signUpRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "name and password are required")
		return
	}
	user, err := s.app.SignUp(req.Name, req.Password, req.UserName, req.UserNickname)
	if err != nil {
		if errors.Is(err, app.ErrDuplicateUser) {
			writeError(w, r, http.StatusConflict, "user already exists")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "sign up failed")
		return
	}
	writeData(w, r, http.StatusCreated, user)
}

// handleSignIn accepts a form body (username/password) and answers with a
// bearer token.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !s.allowRate(w, r, s.signinLimiter, "too many sign-in attempts") {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form data")
		return
	}
	name := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if strings.TrimSpace(name) == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := s.app.SignIn(name, password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "sign in failed")
		return
	}
	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeData(w, r, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	writeData(w, r, http.StatusOK, user)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, r, http.StatusTooManyRequests, msg)
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tok == "" {
		return "", false
	}
	return tok, true
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 50 * 1024 * 1024
	}
	return value
}
