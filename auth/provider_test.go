package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	testTenant   = "tenant-1"
	testClientID = "client-1"
)

// testProvider is a minimal identity provider serving openid metadata and a
// key set
type testProvider struct {
	srv *httptest.Server

	mu        sync.Mutex
	published []jwk.Key

	metadataHits atomic.Int32
	jwksHits     atomic.Int32
	failing      atomic.Bool
	hang         atomic.Bool
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	p := &testProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/"+testTenant+"/v2.0/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
			p.metadataHits.Add(1)
			if !p.available(w, r) {
				return
			}
			_ = json.NewEncoder(w).Encode(
				map[string]string{
					"issuer":   p.issuer(),
					"jwks_uri": p.srv.URL + "/keys",
				},
			)
		},
	)
	mux.HandleFunc(
		"/keys", func(w http.ResponseWriter, r *http.Request) {
			p.jwksHits.Add(1)
			if !p.available(w, r) {
				return
			}
			set := jwk.NewSet()
			p.mu.Lock()
			for _, k := range p.published {
				_ = set.AddKey(k)
			}
			p.mu.Unlock()
			_ = json.NewEncoder(w).Encode(set)
		},
	)
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *testProvider) available(w http.ResponseWriter, r *http.Request) bool {
	if p.hang.Load() {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		return false
	}
	if p.failing.Load() {
		http.Error(w, "down", http.StatusInternalServerError)
		return false
	}
	return true
}

func (p *testProvider) issuer() string {
	return p.srv.URL + "/" + testTenant + "/v2.0"
}

func (p *testProvider) config() Config {
	return Config{
		TenantID:    testTenant,
		ClientID:    testClientID,
		Authority:   p.srv.URL,
		HTTPTimeout: 500 * time.Millisecond,
	}
}

func (p *testProvider) validator() *Validator {
	conf := p.config()
	return NewValidator(conf, NewKeySetCache(conf, p.srv.Client()))
}

// publish replaces the served key set with the public parts of keys
func (p *testProvider) publish(t *testing.T, keys ...jwk.Key) {
	t.Helper()
	published := make([]jwk.Key, len(keys))
	for i, k := range keys {
		pub, err := jwk.PublicKeyOf(k)
		if err != nil {
			t.Fatalf("Failed to derive public key: %v", err)
		}
		published[i] = pub
	}
	p.mu.Lock()
	p.published = published
	p.mu.Unlock()
}

func newSigningKey(t *testing.T, kid string) jwk.Key {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	key, err := jwk.Import(raw)
	if err != nil {
		t.Fatalf("Failed to import key: %v", err)
	}
	if kid != "" {
		if err = key.Set(jwk.KeyIDKey, kid); err != nil {
			t.Fatalf("Failed to set kid: %v", err)
		}
	}
	if err = key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		t.Fatalf("Failed to set alg: %v", err)
	}
	return key
}

// token mints a token for the test tenant that passes validation unless
// modified by the passed option
func (p *testProvider) token(t *testing.T, key jwk.Key, modify func(b *jwt.Builder)) string {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer(p.issuer()).
		Audience([]string{testClientID}).
		Subject("subject-1").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("oid", "oid-1").
		Claim("tid", testTenant).
		Claim("name", "Jane Doe").
		Claim("preferred_username", "jane@example.com").
		Claim("department", "IT")
	if modify != nil {
		modify(b)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), key))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return string(signed)
}
