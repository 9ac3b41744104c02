package middleware

import (
	"net/http"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
)

type respLogger struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (l *respLogger) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *respLogger) Write(b []byte) (int, error) {
	n, err := l.ResponseWriter.Write(b)
	l.bytes += n
	return n, err
}

// Logging writes a debug line per request. Only mounted in development.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &respLogger{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("HTTP request",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"url", r.URL.String(),
			"user_agent", r.UserAgent(),
			"status", lw.status,
			"bytes", lw.bytes,
			"duration", time.Since(start).String(),
		)
	})
}
