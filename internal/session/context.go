package session

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying snap
func NewContext(ctx context.Context, snap *Snapshot) context.Context {
	return context.WithValue(ctx, contextKey{}, snap)
}

// FromContext returns the session snapshot stored in ctx, if any
func FromContext(ctx context.Context) (*Snapshot, bool) {
	snap, ok := ctx.Value(contextKey{}).(*Snapshot)
	return snap, ok && snap != nil
}
