package http

import "context"

type contextKey string

const (
	courtNumberContextKey contextKey = "court_number"
	entryIDContextKey     contextKey = "entry_id"
	blockIDContextKey     contextKey = "block_id"
)

// ContextWithCourtNumber injects the court number resolved from the request
// path.
func ContextWithCourtNumber(ctx context.Context, courtNumber int) context.Context {
	return context.WithValue(ctx, courtNumberContextKey, courtNumber)
}

// CourtNumberFromContext extracts a court number previously associated with
// the context.
func CourtNumberFromContext(ctx context.Context) (int, bool) {
	number, ok := ctx.Value(courtNumberContextKey).(int)
	return number, ok
}

// ContextWithEntryID injects the waitlist entry id from the request path.
func ContextWithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDContextKey, entryID)
}

// EntryIDFromContext extracts a waitlist entry id from the context.
func EntryIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(entryIDContextKey).(string)
	return id, ok
}

// ContextWithBlockID injects the block id from the request path.
func ContextWithBlockID(ctx context.Context, blockID string) context.Context {
	return context.WithValue(ctx, blockIDContextKey, blockID)
}

// BlockIDFromContext extracts a block id from the context.
func BlockIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(blockIDContextKey).(string)
	return id, ok
}
