package ports

import (
	"context"

	"github.com/recallo/recallo-cli/internal/domain"
)

type ProfileRepository interface {
	Get(ctx context.Context) (domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
}

// IdentityProvider yields the signed-in owner. It returns
// domain.ErrUnauthenticated when nobody is signed in.
type IdentityProvider interface {
	OwnerID(ctx context.Context) (domain.OwnerID, error)
}
