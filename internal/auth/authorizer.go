package auth

import (
	"context"

	stream "paystream/internal/stream/domain"
)

// ContextAuthorizer proves a principal by matching it against the
// authenticated JWT subject in the request context.
type ContextAuthorizer struct{}

// RequireAuth returns ErrUnauthorized unless the context subject matches
// the principal acting in the operation.
func (ContextAuthorizer) RequireAuth(ctx context.Context, principal string) error {
	if principal == "" {
		return stream.ErrUnauthorized
	}
	if SubjectFromContext(ctx) != principal {
		return stream.ErrUnauthorized
	}
	return nil
}
