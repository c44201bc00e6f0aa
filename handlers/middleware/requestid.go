package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
)

const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with a ULID, stored under chi's request id
// key so middleware.GetReqID keeps working, and echoes it back to the
// client. A well-formed incoming X-Request-Id is reused.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
