package http

import (
	"context"
)

type contextKey string

const (
	eventIDContextKey    contextKey = "event_id"
	activityIDContextKey contextKey = "activity_id"
)

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithActivityID injects the activity identifier resolved from the request path.
func ContextWithActivityID(ctx context.Context, activityID string) context.Context {
	return context.WithValue(ctx, activityIDContextKey, activityID)
}

// ActivityIDFromContext extracts an activity identifier previously associated with the context.
func ActivityIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(activityIDContextKey).(string)
	return id, ok
}
