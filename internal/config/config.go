package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetCallbackBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Providers
}

func New() Config {
	return mainConfig{}
}
