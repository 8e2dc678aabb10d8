// Package request provides request ID propagation middleware.
// Incoming X-Request-ID headers are trusted when present so IDs correlate
// across services; otherwise a fresh UUID is minted.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"claimcheck/pkg/requestcontext"
)

// HeaderRequestID is the canonical request ID header.
const HeaderRequestID = "X-Request-ID"

// Middleware ensures every request carries a request ID in context and
// echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
