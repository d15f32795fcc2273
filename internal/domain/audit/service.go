package audit

import "context"

// Entry is the input to the recorder. Old and new values are marshaled
// to JSON snapshots at record time.
type Entry struct {
	Action     Action
	DriftID    string
	ActorID    string
	ActorEmail string
	OldValue   any
	NewValue   any
	Details    string
}

// Recorder appends audit entries. Record never returns an error: audit
// logging is a secondary concern and a storage failure there must not
// block the primary operation, so failures are logged and swallowed and
// Record returns nil.
type Recorder interface {
	Record(ctx context.Context, e Entry) *Log

	// List retrieves audit entries with filters and pagination.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Log, int64, error)
}

type actorEmailKey struct{}

// WithActorEmail returns a context carrying the acting user's email, so
// the transport can hand it down to entries recorded on the user's
// behalf without widening every operation signature.
func WithActorEmail(ctx context.Context, email string) context.Context {
	if email == "" {
		return ctx
	}
	return context.WithValue(ctx, actorEmailKey{}, email)
}

// ActorEmail extracts the acting user's email from the context, or ""
// when the caller supplied none.
func ActorEmail(ctx context.Context) string {
	if email, ok := ctx.Value(actorEmailKey{}).(string); ok {
		return email
	}
	return ""
}
