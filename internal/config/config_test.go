package config_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/config"
)

func TestNewManagerDefaultsWithoutConfigFile(t *testing.T) {
	m, err := config.NewManager()
	require.NoError(t, err)

	s := m.Settings()
	assert.Equal(t, "./manifests", s.ManifestsDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.False(t, s.MetricsEnabled)
}

func TestBindFlagsOverridesDefault(t *testing.T) {
	m, err := config.NewManager()
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("logLevel", "info", "")
	require.NoError(t, flags.Set("logLevel", "debug"))

	require.NoError(t, m.BindFlags(flags))
	assert.Equal(t, "debug", m.Settings().LogLevel)
}
