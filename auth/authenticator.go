package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/storage/model"
)

// Authenticator turns a bearer token into a local user
type Authenticator struct {
	validator TokenValidator
	keys      *KeySetCache
	directory *Directory
	disabled  bool
}

// NewAuthenticator creates an Authenticator for the passed Config. If
// authentication is disabled every request resolves to DevClaims.
func NewAuthenticator(conf Config, users model.UsersStore, client *http.Client) (*Authenticator, error) {
	a := &Authenticator{
		directory: NewDirectory(users),
		disabled:  conf.Disabled,
	}
	if conf.Disabled {
		log.Warn("authentication is disabled; all requests act as the development user")
		return a, nil
	}
	if conf.TenantID == "" || conf.ClientID == "" {
		return nil, errors.New("tenant id and client id are required when authentication is enabled")
	}
	a.keys = NewKeySetCache(conf, client)
	a.validator = NewValidator(conf, a.keys)
	return a, nil
}

// NewAuthenticatorWithValidator creates an Authenticator using the passed
// TokenValidator
func NewAuthenticatorWithValidator(v TokenValidator, users model.UsersStore) *Authenticator {
	return &Authenticator{
		validator: v,
		directory: NewDirectory(users),
	}
}

// Disabled reports whether tokens are ignored
func (a *Authenticator) Disabled() bool {
	return a.disabled
}

// Warmup loads the signing keys ahead of the first request. A failure is not
// fatal; the keys are fetched again on demand.
func (a *Authenticator) Warmup(ctx context.Context) error {
	if a.keys == nil {
		return nil
	}
	return a.keys.Refresh(ctx)
}

// Authenticate validates token and returns the matching local user
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if a.disabled {
		claims := DevClaims
		return a.directory.ResolveOrCreate(ctx, &claims)
	}
	claims, err := a.validator.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.directory.ResolveOrCreate(ctx, claims)
}
