package auth

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/internal/metrics"
	"github.com/rio-inventory/inventory/storage/model"
)

// Directory maps verified identities to local users
type Directory struct {
	users model.UsersStore
}

// NewDirectory creates a Directory backed by the passed store
func NewDirectory(users model.UsersStore) *Directory {
	return &Directory{users: users}
}

// ResolveOrCreate returns the local user for the verified identity, creating
// it on first login. A concurrent creation of the same user is detected by
// the unique external identity; the lookup is then repeated once.
func (d *Directory) ResolveOrCreate(ctx context.Context, claims *Claims) (*model.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, unauthenticated("no subject")
	}
	user, err := d.users.GetByAzureOID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	var notFound model.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	user, err = d.users.Create(
		ctx, model.AddUser{
			AzureOID:    claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.Name,
			Department:  claims.Department,
		},
	)
	if err == nil {
		metrics.UserProvisioned()
		log.WithFields(
			log.Fields{
				"user_id":   user.ID,
				"azure_oid": user.AzureOID,
			},
		).Info("provisioned user on first login")
		return user, nil
	}
	var exists model.AlreadyExistsError
	if !errors.As(err, &exists) {
		return nil, err
	}
	return d.users.GetByAzureOID(ctx, claims.Subject)
}
