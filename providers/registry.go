package providers

import (
	"context"

	"github.com/admuse/go-link-broker/internal/errors"
	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	metaAuthURL        = "https://www.facebook.com/v19.0/dialog/oauth"
	metaTokenURL       = "https://graph.facebook.com/v19.0/oauth/access_token"
	metaAccountInfoURL = "https://graph.facebook.com/v19.0/me"
)

// Registry maps provider names to their configuration. It is populated
// once at startup and read-only afterwards.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

func (r *Registry) Register(p *Provider) {
	r.providers[p.Name] = p
}

func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "%q", name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// NewMeta builds the Meta (Facebook) Graph API provider.
func NewMeta(clientID, clientSecret string, scopes []string) *Provider {
	return &Provider{
		Name:           "meta",
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		AuthURL:        metaAuthURL,
		TokenURL:       metaTokenURL,
		Scopes:         scopes,
		AccountInfoURL: metaAccountInfoURL,
	}
}

// NewOIDC builds a provider from an OIDC issuer via discovery, so any
// spec-compliant platform can be linked without hardcoding endpoints.
func NewOIDC(ctx context.Context, name, issuer, clientID, clientSecret string) (*Provider, error) {
	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "discovering OIDC provider %q", name)
	}

	var claims struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := oidcProvider.Claims(&claims); err != nil {
		return nil, errors.Wrapf(err, "reading OIDC discovery document for %q", name)
	}

	endpoint := oidcProvider.Endpoint()
	return &Provider{
		Name:           name,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		AuthURL:        endpoint.AuthURL,
		TokenURL:       endpoint.TokenURL,
		Scopes:         []string{oidc.ScopeOpenID, "profile", "email"},
		AccountInfoURL: claims.UserInfoURL,
	}, nil
}
