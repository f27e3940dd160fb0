// Package identity resolves the acting user for each request. The service
// trusts caller-provided identity headers, which keeps local and demo
// deployments friction free while leaving room to swap in a real
// authentication backend behind the same Resolver interface.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/store"
)

const (
	// HeaderUserID carries the caller's user identifier.
	HeaderUserID = "X-User-Id"
	// HeaderUserName optionally carries a display name used when the user
	// record is created on first sight.
	HeaderUserName = "X-User-Name"

	defaultDisplayName = "Demo User"
)

// ErrNoIdentity signals that no identity header was provided.
var ErrNoIdentity = errors.New("identity: missing user header")

// ErrMalformedIdentity signals an identity header that is not a UUID.
var ErrMalformedIdentity = errors.New("identity: malformed user id")

// Identity is the resolved acting user.
type Identity struct {
	UserID uuid.UUID
	Name   string
}

// Resolver resolves an identity from raw header values.
type Resolver interface {
	Resolve(ctx context.Context, rawID, rawName string) (Identity, error)
}

// Querier is the subset of store queries the header resolver needs.
type Querier interface {
	UpsertUser(ctx context.Context, arg store.UpsertUserParams) (store.User, error)
}

// HeaderResolver trusts the identity headers and creates the user record on
// first sight.
type HeaderResolver struct {
	Q Querier
}

// Resolve implements Resolver.
func (h HeaderResolver) Resolve(ctx context.Context, rawID, rawName string) (Identity, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return Identity{}, ErrNoIdentity
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, ErrMalformedIdentity
	}
	name := strings.TrimSpace(rawName)
	if name == "" {
		name = defaultDisplayName
	}
	user, err := h.Q.UpsertUser(ctx, store.UpsertUserParams{
		ID:   store.FromUUID(id),
		Name: name,
	})
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: store.UUIDValue(user.ID), Name: user.Name}, nil
}

// UserIDFromContext returns the resolved user id stored on the context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := common.UserID(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
