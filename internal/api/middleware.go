package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/metrics"
	"github.com/spigell/jobpilot/internal/models"
)

// UserHeader carries the id of the authenticated user, set by the gateway in front of the API.
const UserHeader = "X-User-ID"

var errUnauthorized = errors.New("unauthorized")

type ctxKey int

const userKey ctxKey = iota

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("req",
			zap.String("method", r.Method),
			zap.Stringer("url", r.URL),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
			zap.String("x-forwarded-for", r.Header.Get("x-forwarded-for")),
		)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.WithLabelValues(routeName(r), r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

// UserLookup resolves the user behind a request.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware requires a known user id in the X-User-ID header.
func (s *Server) AuthMiddleware(users UserLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserHeader))
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				s.JSON(w, http.StatusUnauthorized, errorResponse{Error: fmt.Sprintf("%s header is required", UserHeader)})
				return
			}

			user, err := users.GetUser(r.Context(), id)
			if errors.Is(err, models.ErrNotFound) {
				s.JSON(w, http.StatusUnauthorized, errorResponse{Error: errUnauthorized.Error()})
				return
			}
			if err != nil {
				s.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
