package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	callbackBaseVar = "CALLBACK_BASE_URL"
	sessionStoreVar = "SESSION_STORE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Link Broker")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetCallbackBaseURL returns the externally-reachable base URL the OAuth
// provider redirects back to (e.g., "https://broker.example.com"). When
// empty the callback address is derived from the incoming request.
func (EnvVars) GetCallbackBaseURL() string {
	return GetEnv(callbackBaseVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
