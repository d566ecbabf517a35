package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"safeguard/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	RequestIDContextKey ContextKey = "request_id"
	CallerContextKey    ContextKey = "caller"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	logger      *zap.Logger
	tokenSecret []byte
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. An empty tokenSecret
// disables token checks; a nil limiter disables rate limiting.
func NewMiddleware(logger *zap.Logger, tokenSecret string, limiter *security.RateLimiter) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Middleware{logger: logger, limiter: limiter}
	if tokenSecret != "" {
		m.tokenSecret = []byte(tokenSecret)
	}
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging assigns a request id and logs each request when it completes
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		m.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestID),
		)
	})
}

// RequireToken checks for an HS256 bearer token signed with the shared secret
func (m *Middleware) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	if m.tokenSecret == nil {
		return next
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respondWithError(w, m.logger, http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			return m.tokenSecret, nil
		})
		if err != nil || !token.Valid {
			respondWithError(w, m.logger, http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized, "rejected service token", err)
			return
		}

		ctx := context.WithValue(r.Context(), CallerContextKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects callers that exceed their request budget
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	if m.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, m.logger, http.StatusTooManyRequests, CodeRateLimited, ErrRateLimited, "", nil)
			return
		}
		next(w, r)
	}
}

// Protect applies rate limiting, then the token check
func (m *Middleware) Protect(next http.HandlerFunc) http.HandlerFunc {
	return m.RateLimit(m.RequireToken(next))
}

// GetRequestID retrieves the request id from the request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// GetCaller retrieves the token subject from the request context
func GetCaller(ctx context.Context) string {
	caller, _ := ctx.Value(CallerContextKey).(string)
	return caller
}
