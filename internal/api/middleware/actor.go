package middleware

import (
	"context"
	"net/http"

	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/domain/drift"
)

const (
	// ActorIDKey is the context key for the acting user's identifier.
	ActorIDKey ContextKey = "actorID"

	// ActorIDHeader carries the caller identity on API requests.
	ActorIDHeader = "X-Actor-ID"
	// ActorEmailHeader carries the caller email on API requests.
	ActorEmailHeader = "X-Actor-Email"
)

// Actor returns a middleware that extracts the caller identity from the
// request headers. Requests with no identity headers are attributed to
// the system actor. The email travels in the audit context so entries
// recorded downstream pick it up.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := r.Header.Get(ActorIDHeader)
			if actorID == "" {
				actorID = drift.SystemActor
			}

			ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
			ctx = audit.WithActorEmail(ctx, r.Header.Get(ActorEmailHeader))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorID extracts the acting user's identifier from the request context.
func GetActorID(r *http.Request) string {
	if id, ok := r.Context().Value(ActorIDKey).(string); ok && id != "" {
		return id
	}
	return drift.SystemActor
}
