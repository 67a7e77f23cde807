package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/internal/metrics"
)

// keySetState is one complete snapshot of the provider's signing keys. A
// snapshot is never modified after it was published.
type keySetState struct {
	set        jwk.Set
	issuer     string
	jwksURI    string
	generation uint64
}

type refreshCall struct {
	done chan struct{}
	err  error
}

// KeySetCache caches the signing keys of the identity provider.
//
// Readers load the current snapshot without locking. Refreshes are
// serialized: concurrent callers that need a refresh share a single fetch,
// and a caller whose snapshot was already replaced by a newer one does not
// fetch again. The network fetch is not bound to any caller's context, so a
// caller giving up does not abort the refresh for the others.
type KeySetCache struct {
	metadataURL string
	client      *http.Client
	timeout     time.Duration

	state atomic.Pointer[keySetState]

	mu       sync.Mutex
	inflight *refreshCall
}

// NewKeySetCache creates a KeySetCache for the provider described by conf.
// Nothing is fetched until the first key is requested.
func NewKeySetCache(conf Config, client *http.Client) *KeySetCache {
	if client == nil {
		client = &http.Client{}
	}
	return &KeySetCache{
		metadataURL: conf.MetadataURL(),
		client:      client,
		timeout:     conf.httpTimeout(),
	}
}

// Issuer returns the issuer named in the provider metadata, or "" if it is
// not known (yet)
func (c *KeySetCache) Issuer() string {
	if s := c.state.Load(); s != nil {
		return s.issuer
	}
	return ""
}

// Len returns the number of cached keys
func (c *KeySetCache) Len() int {
	if s := c.state.Load(); s != nil {
		return s.set.Len()
	}
	return 0
}

// Key returns the signing key with the passed key id. If the key is not
// cached, exactly one refresh is performed before giving up.
func (c *KeySetCache) Key(ctx context.Context, kid string) (jwk.Key, error) {
	key, _, err := c.lookup(ctx, kid)
	return key, err
}

// Refresh fetches the key set again unless another refresh completed in the
// meantime
func (c *KeySetCache) Refresh(ctx context.Context) error {
	var seen uint64
	if s := c.state.Load(); s != nil {
		seen = s.generation
	}
	return c.refresh(ctx, seen)
}

func (c *KeySetCache) lookup(ctx context.Context, kid string) (jwk.Key, *keySetState, error) {
	s := c.state.Load()
	if s == nil {
		if err := c.refresh(ctx, 0); err != nil {
			return nil, nil, err
		}
		s = c.state.Load()
	}
	if key, ok := s.set.LookupKeyID(kid); ok {
		return key, s, nil
	}
	// unknown key id; the provider might have rotated its keys
	if err := c.refresh(ctx, s.generation); err != nil {
		return nil, nil, err
	}
	s = c.state.Load()
	if key, ok := s.set.LookupKeyID(kid); ok {
		return key, s, nil
	}
	return nil, nil, unauthenticated("signing key '%s' not found", kid)
}

func (c *KeySetCache) refresh(ctx context.Context, seen uint64) error {
	c.mu.Lock()
	if s := c.state.Load(); s != nil && s.generation > seen {
		c.mu.Unlock()
		return nil
	}
	call := c.inflight
	if call == nil {
		call = &refreshCall{done: make(chan struct{})}
		c.inflight = call
		go c.run(context.WithoutCancel(ctx), call)
	}
	c.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return unavailable(ctx.Err())
	}
}

func (c *KeySetCache) run(ctx context.Context, call *refreshCall) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prev := c.state.Load()
	next, err := c.fetch(ctx, prev)
	metrics.KeySetRefresh(err, setLen(next))

	c.mu.Lock()
	if err != nil {
		log.WithError(err).Error("failed to load signing keys")
		call.err = unavailable(err)
	} else {
		c.state.Store(next)
		log.WithFields(
			log.Fields{
				"keys":       next.set.Len(),
				"generation": next.generation,
			},
		).Info("signing keys loaded")
	}
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)
}

type providerMetadata struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

func (c *KeySetCache) fetch(ctx context.Context, prev *keySetState) (*keySetState, error) {
	next := &keySetState{generation: 1}
	if prev != nil {
		next.issuer = prev.issuer
		next.jwksURI = prev.jwksURI
		next.generation = prev.generation + 1
	}
	if next.jwksURI == "" {
		meta, err := c.fetchMetadata(ctx)
		if err != nil {
			return nil, err
		}
		next.issuer = meta.Issuer
		next.jwksURI = meta.JWKSURI
	}
	set, err := jwk.Fetch(ctx, next.jwksURI, jwk.WithHTTPClient(c.client))
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch key set")
	}
	next.set = set
	return next, nil
}

func (c *KeySetCache) fetchMetadata(ctx context.Context) (*providerMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.metadataURL, http.NoBody)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch provider metadata")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("provider metadata returned status %d", res.StatusCode)
	}
	var meta providerMetadata
	if err = json.NewDecoder(res.Body).Decode(&meta); err != nil {
		return nil, errors.Wrap(err, "could not decode provider metadata")
	}
	if meta.JWKSURI == "" {
		return nil, errors.New("provider metadata does not contain a jwks_uri")
	}
	return &meta, nil
}

func setLen(s *keySetState) int {
	if s == nil || s.set == nil {
		return 0
	}
	return s.set.Len()
}
