package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

func TestValidateAcceptsValidToken(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	v := p.validator()

	claims, err := v.Validate(context.Background(), p.token(t, key, nil))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Subject != "oid-1" {
		t.Errorf("Expected subject oid-1, got %q", claims.Subject)
	}
	if claims.Email != "jane@example.com" || claims.Name != "Jane Doe" || claims.Department != "IT" {
		t.Errorf("Unexpected claims %+v", claims)
	}
	if claims.TenantID != testTenant {
		t.Errorf("Expected tenant %s, got %q", testTenant, claims.TenantID)
	}
	if p.metadataHits.Load() != 1 || p.jwksHits.Load() != 1 {
		t.Fatalf(
			"Expected one metadata and one key set fetch, got %d and %d", p.metadataHits.Load(), p.jwksHits.Load(),
		)
	}

	// cached keys are reused
	if _, err = v.Validate(context.Background(), p.token(t, key, nil)); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if p.jwksHits.Load() != 1 {
		t.Fatalf("Expected the cached key set to be used, got %d fetches", p.jwksHits.Load())
	}
}

func TestValidateEmailFallbacks(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	v := p.validator()

	claims, err := v.Validate(
		context.Background(), p.token(
			t, key, func(b *jwt.Builder) {
				b.Claim("preferred_username", "").Claim("upn", "jane@corp.example")
			},
		),
	)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Email != "jane@corp.example" {
		t.Fatalf("Expected the upn as email, got %q", claims.Email)
	}
}

func TestKeyRotationRefreshesExactlyOnce(t *testing.T) {
	p := newTestProvider(t)
	oldKey := newSigningKey(t, "old")
	p.publish(t, oldKey)
	v := p.validator()
	ctx := context.Background()

	if _, err := v.Validate(ctx, p.token(t, oldKey, nil)); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	newKey := newSigningKey(t, "new")
	p.publish(t, newKey)
	if _, err := v.Validate(ctx, p.token(t, newKey, nil)); err != nil {
		t.Fatalf("Expected the rotated key to be picked up: %v", err)
	}
	if got := p.jwksHits.Load(); got != 2 {
		t.Fatalf("Expected exactly one refresh, got %d key set fetches", got)
	}
	if got := p.metadataHits.Load(); got != 1 {
		t.Fatalf("Expected metadata to be fetched once, got %d", got)
	}

	unknown := newSigningKey(t, "unknown")
	_, err := v.Validate(ctx, p.token(t, unknown, nil))
	if !IsUnauthenticated(err) {
		t.Fatalf("Expected ErrUnauthenticated for an unknown key, got %v", err)
	}
	if got := p.jwksHits.Load(); got != 3 {
		t.Fatalf("Expected a single refresh for the unknown key, got %d fetches in total", got)
	}
}

func TestConcurrentMissesShareOneRefresh(t *testing.T) {
	p := newTestProvider(t)
	oldKey := newSigningKey(t, "old")
	p.publish(t, oldKey)
	v := p.validator()
	ctx := context.Background()
	if _, err := v.Validate(ctx, p.token(t, oldKey, nil)); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	newKey := newSigningKey(t, "new")
	p.publish(t, newKey)
	token := p.token(t, newKey, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Validate(ctx, token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	}
	if got := p.jwksHits.Load(); got != 2 {
		t.Fatalf("Expected concurrent misses to share one refresh, got %d key set fetches", got)
	}
}

func TestValidateRejects(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	v := p.validator()

	noKid := newSigningKey(t, "")
	tests := map[string]string{
		"empty":     "",
		"malformed": "not-a-token",
		"no kid":    p.token(t, noKid, nil),
		"expired": p.token(
			t, key, func(b *jwt.Builder) {
				b.IssuedAt(time.Now().Add(-2 * time.Hour)).Expiration(time.Now().Add(-time.Hour))
			},
		),
		"audience": p.token(
			t, key, func(b *jwt.Builder) {
				b.Audience([]string{"someone-else"})
			},
		),
		"issuer": p.token(
			t, key, func(b *jwt.Builder) {
				b.Issuer("https://evil.example/" + testTenant + "/v2.0")
			},
		),
		"issuer of another tenant": p.token(
			t, key, func(b *jwt.Builder) {
				b.Issuer("https://sts.windows.net/other-tenant/")
			},
		),
		"missing oid": p.token(
			t, key, func(b *jwt.Builder) {
				b.Claim("oid", "")
			},
		),
	}
	for name, token := range tests {
		t.Run(
			name, func(t *testing.T) {
				_, err := v.Validate(context.Background(), token)
				if !IsUnauthenticated(err) {
					t.Fatalf("Expected ErrUnauthenticated, got %v", err)
				}
			},
		)
	}
}

func TestValidateAcceptsAlternateAudienceAndIssuer(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	v := p.validator()

	for _, iss := range []string{
		"https://sts.windows.net/" + testTenant + "/",
		"https://login.microsoftonline.com/" + testTenant + "/v2.0",
		"https://login.windows.net/" + testTenant,
	} {
		token := p.token(
			t, key, func(b *jwt.Builder) {
				b.Issuer(iss).Audience([]string{"other", "api://" + testClientID})
			},
		)
		if _, err := v.Validate(context.Background(), token); err != nil {
			t.Fatalf("Expected issuer %s to be accepted: %v", iss, err)
		}
	}
}

func TestValidateProviderUnavailable(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	p.failing.Store(true)
	v := p.validator()

	_, err := v.Validate(context.Background(), p.token(t, key, nil))
	if !IsServiceUnavailable(err) {
		t.Fatalf("Expected ErrServiceUnavailable, got %v", err)
	}

	// the provider recovers
	p.failing.Store(false)
	if _, err = v.Validate(context.Background(), p.token(t, key, nil)); err != nil {
		t.Fatalf("Expected validation to succeed after recovery: %v", err)
	}
}

func TestValidateProviderTimeout(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	p.hang.Store(true)
	conf := p.config()
	conf.HTTPTimeout = 100 * time.Millisecond
	v := NewValidator(conf, NewKeySetCache(conf, p.srv.Client()))

	start := time.Now()
	_, err := v.Validate(context.Background(), p.token(t, key, nil))
	if !IsServiceUnavailable(err) {
		t.Fatalf("Expected ErrServiceUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Expected the timeout to bound the fetch, took %s", elapsed)
	}
}

func TestFailedRefreshKeepsCachedKeys(t *testing.T) {
	p := newTestProvider(t)
	key := newSigningKey(t, "k1")
	p.publish(t, key)
	v := p.validator()
	ctx := context.Background()
	if _, err := v.Validate(ctx, p.token(t, key, nil)); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	p.failing.Store(true)
	_, err := v.Validate(ctx, p.token(t, newSigningKey(t, "k2"), nil))
	if !IsServiceUnavailable(err) {
		t.Fatalf("Expected ErrServiceUnavailable when the refresh fails, got %v", err)
	}
	if _, err = v.Validate(ctx, p.token(t, key, nil)); err != nil {
		t.Fatalf("Expected the cached key to remain usable: %v", err)
	}
}
