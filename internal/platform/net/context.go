// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyOrgID ctxKey = "org_id"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, orgID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if orgID != "" {
		ctx = context.WithValue(ctx, keyOrgID, orgID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// OrgID returns the organization id on the context if present
func OrgID(ctx context.Context) string {
	if v, ok := ctx.Value(keyOrgID).(string); ok {
		return v
	}
	return ""
}
