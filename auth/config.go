package auth

import (
	"fmt"
	"strings"
	"time"
)

// DefaultAuthority is the base url of the identity provider
const DefaultAuthority = "https://login.microsoftonline.com"

// DefaultIssuerHosts are the provider hosts that may appear in a token's
// issuer in place of the canonical one
var DefaultIssuerHosts = []string{
	"https://login.microsoftonline.com",
	"https://login.microsoftonline.de",
	"https://login.windows.net",
	"https://sts.windows.net",
}

// Config configures token validation
type Config struct {
	TenantID  string
	ClientID  string
	Authority string
	// Audiences overrides the accepted audiences; defaults to the client id
	// and its api:// form
	Audiences   []string
	IssuerHosts []string
	HTTPTimeout time.Duration
	Leeway      time.Duration
	Disabled    bool
}

func (c Config) authority() string {
	if c.Authority == "" {
		return DefaultAuthority
	}
	return strings.TrimRight(c.Authority, "/")
}

// MetadataURL returns the url of the provider's openid configuration
func (c Config) MetadataURL() string {
	return fmt.Sprintf("%s/v2.0/.well-known/openid-configuration", c.tenantURL())
}

// FallbackIssuer is the issuer expected when the provider metadata does not
// name one
func (c Config) FallbackIssuer() string {
	return fmt.Sprintf("%s/v2.0", c.tenantURL())
}

func (c Config) tenantURL() string {
	return fmt.Sprintf("%s/%s", c.authority(), c.TenantID)
}

// AllowedAudiences returns the audiences a token must intersect with
func (c Config) AllowedAudiences() []string {
	if len(c.Audiences) > 0 {
		return c.Audiences
	}
	if c.ClientID == "" {
		return nil
	}
	return []string{c.ClientID, "api://" + c.ClientID}
}

func (c Config) issuerHosts() []string {
	if len(c.IssuerHosts) > 0 {
		return c.IssuerHosts
	}
	return DefaultIssuerHosts
}

func (c Config) httpTimeout() time.Duration {
	if c.HTTPTimeout <= 0 {
		return 5 * time.Second
	}
	return c.HTTPTimeout
}
