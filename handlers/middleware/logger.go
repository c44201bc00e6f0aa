package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Logger is chi's RequestLogger backed by logrus.
func Logger(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&logFormatter{logger: logger})
}

type logFormatter struct {
	logger logrus.FieldLogger
}

func (f *logFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		fields["request_id"] = reqID
	}
	return &logEntry{logger: f.logger.WithFields(fields)}
}

type logEntry struct {
	logger logrus.FieldLogger
}

func (e *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	log := e.logger.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": float64(elapsed.Nanoseconds()) / 1e6,
	})
	switch {
	case status >= 500:
		log.Error("Request completed")
	case status >= 400:
		log.Warn("Request completed")
	default:
		log.Info("Request completed")
	}
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.logger.WithFields(logrus.Fields{
		"panic": fmt.Sprintf("%+v", v),
		"stack": string(stack),
	}).Error("Request panicked")
}
