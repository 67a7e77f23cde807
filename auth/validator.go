package auth

import (
	"context"
	"strings"
	"time"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/internal/metrics"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Validator verifies bearer tokens issued by the identity provider against
// the keys of a KeySetCache
type Validator struct {
	keys           *KeySetCache
	audiences      []string
	issuerHosts    []string
	fallbackIssuer string
	leeway         time.Duration
}

// NewValidator creates a Validator
func NewValidator(conf Config, keys *KeySetCache) *Validator {
	return &Validator{
		keys:           keys,
		audiences:      conf.AllowedAudiences(),
		issuerHosts:    conf.issuerHosts(),
		fallbackIssuer: conf.FallbackIssuer(),
		leeway:         conf.Leeway,
	}
}

// Validate verifies the passed token and returns its claims. Errors wrap
// either ErrUnauthenticated or ErrServiceUnavailable.
func (v *Validator) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := v.validate(ctx, token)
	switch {
	case err == nil:
		metrics.TokenValidation("ok")
	case IsServiceUnavailable(err):
		metrics.TokenValidation("unavailable")
	default:
		metrics.TokenValidation("unauthenticated")
		log.WithError(err).Debug("rejected bearer token")
	}
	return claims, err
}

func (v *Validator) validate(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, unauthenticated("no token given")
	}
	kid, err := keyID(token)
	if err != nil {
		return nil, err
	}
	key, state, err := v.keys.lookup(ctx, kid)
	if err != nil {
		return nil, err
	}

	alg := jwa.RS256()
	if keyAlg, ok := key.Algorithm(); ok {
		sigAlg, found := jwa.LookupSignatureAlgorithm(keyAlg.String())
		if !found {
			return nil, unauthenticated("key '%s' is not a signing key", kid)
		}
		alg = sigAlg
	}

	tok, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(alg, key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.leeway),
		jwt.WithRequiredClaim("exp"),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, unauthenticated("token expired")
		}
		return nil, unauthenticated("invalid token: %v", err)
	}

	claims := claimsFromToken(tok)
	if len(arrays.Intersect(claims.Audience, v.audiences)) == 0 {
		return nil, unauthenticated("invalid audience %v", claims.Audience)
	}
	expected := state.issuer
	if expected == "" {
		expected = v.fallbackIssuer
	}
	if !issuerAllowed(claims.Issuer, expected, v.issuerHosts, claims.TenantID) {
		return nil, unauthenticated("invalid issuer '%s'", claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, unauthenticated("oid claim missing")
	}
	return &claims, nil
}

// keyID extracts the key id from the unverified token header
func keyID(token string) (string, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return "", unauthenticated("malformed token: %v", err)
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", unauthenticated("malformed token: no signature")
	}
	kid, ok := sigs[0].ProtectedHeaders().KeyID()
	if !ok || kid == "" {
		return "", unauthenticated("token header has no key id")
	}
	return kid, nil
}
