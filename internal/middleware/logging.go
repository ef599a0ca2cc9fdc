package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carhire/carhire/internal/model"
)

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// accessLogKey holds the *accessEntry of the request being logged.
const accessLogKey contextKey = "access_log"

// accessEntry collects caller details discovered further down the chain.
// It is only touched by the goroutine serving the request.
type accessEntry struct {
	userID string
	role   string
}

// recordSession attaches the session owner to the request's access log line.
// It is a no-op when Logger is not in the chain.
func recordSession(ctx context.Context, sess *model.Session) {
	if entry, ok := ctx.Value(accessLogKey).(*accessEntry); ok && sess != nil {
		entry.userID = sess.UserID
		entry.role = sess.Role
	}
}

// Logger writes one structured line per request once the handler returns.
// Requests made with a session carry user_id and role; routed requests
// carry the chi route pattern, so /cars/{id}/rent groups across cars.
// Status >= 500 logs at error level, >= 400 at warn.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessEntry{}
			rec := newStatusRecorder(w)

			r = r.WithContext(context.WithValue(r.Context(), accessLogKey, entry))
			next.ServeHTTP(rec, r)

			ctx := r.Context()
			attrs := make([]slog.Attr, 0, 11)
			attrs = append(attrs,
				slog.String("request_id", GetRequestID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", rec.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)

			if rctx := chi.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					attrs = append(attrs, slog.String("route", pattern))
				}
			}
			if entry.userID != "" {
				attrs = append(attrs,
					slog.String("user_id", entry.userID),
					slog.String("role", entry.role),
				)
			}
			if traceID := GetTraceID(ctx); traceID != "" {
				attrs = append(attrs, slog.String("trace_id", traceID))
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(ctx, level, "http request", attrs...)
		})
	}
}
