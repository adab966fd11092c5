package config

import "strings"

type ProviderConfig interface {
	GetDefaultProvider() string
	GetMetaClientID() string
	GetMetaClientSecret() string
	GetMetaScopes() []string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetSessionStoreBackend() string
}

type Providers struct{}

var _ ProviderConfig = Providers{}

func (Providers) GetDefaultProvider() string {
	return GetEnv("DEFAULT_PROVIDER", "meta")
}

func (Providers) GetMetaClientID() string {
	return GetEnv("META_CLIENT_ID", "")
}

func (Providers) GetMetaClientSecret() string {
	return GetEnv("META_CLIENT_SECRET", "")
}

func (Providers) GetMetaScopes() []string {
	scopes := GetEnv("META_SCOPES", "ads_read,ads_management")
	return strings.Split(scopes, ",")
}

// GetOIDCIssuer optionally configures a second, discovery-based provider.
// Empty means no OIDC provider is registered.
func (Providers) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Providers) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Providers) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

// GetSessionStoreBackend selects "memory" (single instance) or "redis"
// (multi-replica deployments).
func (Providers) GetSessionStoreBackend() string {
	return GetEnv(sessionStoreVar, "memory")
}
