package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/logger"
	"taskhub/internal/server/store"
	"taskhub/internal/service"
)

// minPasswordLen is the weak-password threshold.
const minPasswordLen = 6

// Claims is the session token payload.
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	jwt.RegisteredClaims
}

type contextKey int

const sessionKey contextKey = iota

// sessionFromContext returns the session injected by requireAuth.
func sessionFromContext(ctx context.Context) (service.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(service.Session)
	return sess, ok
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Session service.Session `json:"session"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "weak_password", "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	u, err := s.store.CreateUser(r.Context(), req.Email, string(hash), "")
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email_in_use", "email already in use")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("user registered", "user_id", u.ID)
	s.writeSessionResponse(w, r, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	u, err := s.store.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	s.writeSessionResponse(w, r, http.StatusOK, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	// Read from the store rather than the token claims so a profile
	// update is visible without re-issuing the token.
	u, err := s.store.UserByID(r.Context(), sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]service.Session{"session": {
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}})
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.store.SetDisplayName(r.Context(), sess.UserID, req.DisplayName); err != nil {
		s.internalError(w, r, err)
		return
	}
	sess.DisplayName = req.DisplayName
	writeJSON(w, http.StatusOK, map[string]service.Session{"session": sess})
}

// writeSessionResponse issues a token for u and returns it with the session.
func (s *Server) writeSessionResponse(w http.ResponseWriter, r *http.Request, status int, u store.User) {
	token, err := s.issueToken(u)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{
		Token: token,
		Session: service.Session{
			UserID:      u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
		},
	})
}

func (s *Server) issueToken(u store.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// requireAuth validates the bearer token and injects the session into
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		sess := service.Session{
			UserID:      claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
