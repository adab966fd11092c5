package config_test

import (
	"testing"

	"github.com/admuse/go-link-broker/internal/config"
	"github.com/stretchr/testify/require"
)

func TestGetPort(t *testing.T) {
	vars := config.EnvVars{}

	t.Run("DefaultsTo8080", func(t *testing.T) {
		t.Setenv("PORT", "")
		require.Equal(t, ":8080", vars.GetPort())
	})

	t.Run("BarePortGainsColon", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		require.Equal(t, ":9090", vars.GetPort())
	})

	t.Run("ColonPrefixedPortKeptAsIs", func(t *testing.T) {
		t.Setenv("PORT", ":9090")
		require.Equal(t, ":9090", vars.GetPort())
	})
}

func TestGetEnvDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "")
	require.Equal(t, "Go Link Broker", config.EnvVars{}.GetAppName())

	t.Setenv("APP_NAME", "Broker Test")
	require.Equal(t, "Broker Test", config.EnvVars{}.GetAppName())
}
