package auth

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/internal/model"
)

type identityKey struct{}

// WithIdentity attaches the acting identity to ctx, for call sites that act
// on behalf of someone other than the session owner.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, falling back to
// the session's identity.
func IdentityFrom(ctx context.Context, session SessionProvider) model.Identity {
	if id, ok := ctx.Value(identityKey{}).(model.Identity); ok && id != nil {
		return id
	}
	if session == nil {
		return model.Guest{}
	}
	if id := session.Identity(); id != nil {
		return id
	}
	return model.Guest{}
}
