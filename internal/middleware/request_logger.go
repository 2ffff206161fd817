package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/diasporalink/backend/internal/logging"
)

// RequestObserver receives the outcome of every request.
type RequestObserver interface {
	ObserveRequest(method string, status int, elapsed time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) code() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// RequestLogger gives every request an id and a context logger carrying the
// request id and client identity, recovers panics as 500s, logs completion
// and reports it to observer when one is provided.
//
// An upstream X-Request-ID is reused when it parses as a UUID.
func RequestLogger(base *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := incomingRequestID(r)
			clientID := ClientIdentity(r)

			ctx := logging.WithLogger(r.Context(), base.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			))
			ctx = logging.WithRequestID(ctx, requestID)
			ctx = logging.WithClientID(ctx, clientID)
			logger := logging.FromContext(ctx)

			w.Header().Set("X-Request-ID", requestID)
			rec := &statusRecorder{ResponseWriter: w}

			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						logger.Info("request aborted")
						panic(p)
					}
					logger.Error("panic recovered", "panic", p)
					if rec.status == 0 {
						http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}

				status := rec.code()
				elapsed := time.Since(start)
				if observer != nil {
					observer.ObserveRequest(r.Method, status, elapsed)
				}

				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.Log(ctx, level, "request completed",
					slog.Int("status", status),
					slog.Duration("duration", elapsed),
				)
			}()

			next.ServeHTTP(rec, r.WithContext(ctx))
		})
	}
}

func incomingRequestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get("X-Request-ID")); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
