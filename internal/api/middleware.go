package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/httputil"
)

var (
	requestIDContextKey = "Request-ID"
	loggerContextKey    = "Logger"
	profileContextKey   = "Profile-Name"
)

func (s *Server) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New()
		ctx := context.WithValue(r.Context(), requestIDContextKey, reqID.String())
		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) SettingUpLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.Default()
		reqID, ok := r.Context().Value(requestIDContextKey).(string)
		if ok && reqID != "" {
			logger = logger.With(slog.String("request_id", reqID))
		}
		logger = logger.With(slog.String("from", r.RemoteAddr))
		ctx := context.WithValue(r.Context(), loggerContextKey, logger)
		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

// ProfileCtxMiddleware resolves the {profile} path param against the
// lifecycle manager so every handler below it can assume the profile
// exists.
func (s *Server) ProfileCtxMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLoggerFromCtx(r.Context())
		name := chi.URLParam(r, "profile")
		if name == "" {
			logger.Error("profile resolution failed: empty name")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "profile name is required", nil)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Second*5)
		defer cancel()
		_, err := s.profileService.Get(ctx, name)
		if err != nil {
			if errors.Is(err, errorvalues.ErrProfileNotFound) {
				logger.Error("profile doesn't exist", slog.String("profile", name))
				httputil.WriteErrorResponse(w, http.StatusNotFound, "profile not found", nil)
				return
			}
			logger.Error("error while searching for profile", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while searching for profile", nil)
			return
		}
		reqCtx := context.WithValue(r.Context(), profileContextKey, name)
		reqCtx = context.WithValue(reqCtx, loggerContextKey, logger.With(slog.String("profile", name)))
		r = r.WithContext(reqCtx)
		next.ServeHTTP(w, r)
	})
}

func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerContextKey).(*slog.Logger)
	if ok {
		return logger
	}
	return slog.Default()
}

func GetProfileFromCtx(ctx context.Context) (string, error) {
	name, ok := ctx.Value(profileContextKey).(string)
	if !ok || name == "" {
		return "", errors.New("profile name invalid or doesn't exist")
	}
	return name, nil
}
