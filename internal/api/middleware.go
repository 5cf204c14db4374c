package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/listenupapp/readup-server/internal/errors"
)

// UserIDHeader carries the reader's identity, set by the fronting auth proxy.
const UserIDHeader = "X-User-ID"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the requesting user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the requesting user ID from context.
// Returns 401 error if no user was identified.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("missing " + UserIDHeader + " header")
	}
	return userID, nil
}

// setUserID stores the user ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// userMiddleware copies the user header into the request context.
// Requests without it continue anonymously; handlers use GetUserID to reject them.
func userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" {
			r = r.WithContext(setUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level, or warn for 5xx.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// rateLimited returns a huma middleware limiting requests per user, falling
// back to the client address for anonymous requests.
func (s *Server) rateLimited() huma.Middlewares {
	if s.limiter == nil {
		return nil
	}
	return huma.Middlewares{func(ctx huma.Context, next func(huma.Context)) {
		key, err := GetUserID(ctx.Context())
		if err != nil {
			key = "ip:" + clientIP(ctx.RemoteAddr())
		}

		if !s.limiter.Allow(key) {
			retry := s.limiter.RetryAfter(key)
			s.logger.Warn("rate limit exceeded",
				"key", key,
				"path", ctx.URL().Path,
			)
			ctx.SetHeader("Retry-After", retryAfterSeconds(retry))
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "rate limit exceeded",
				domainerrors.RateLimited("too many requests, retry later"))
			return
		}

		next(ctx)
	}}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// clientIP strips the port from a remote address. chi's RealIP may already
// have replaced it with a bare address.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
