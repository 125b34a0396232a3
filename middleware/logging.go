package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader echoes the chi request id back to the client
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request with zap.
// It must run after chimw.RequestID so the id is available.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chimw.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set(RequestIDHeader, requestID)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				level := zapcore.InfoLevel
				switch {
				case status >= 500:
					level = zapcore.ErrorLevel
				case status >= 400:
					level = zapcore.WarnLevel
				}

				logger.Check(level, "http request").Write(
					zap.String("request_id", requestID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote_addr", r.RemoteAddr),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
