// Package config loads the task-orchestrator CLI's runtime settings through
// spf13/viper, the way the teacher's cmd/cobra_cli.go configures viper
// (SetConfigName/SetConfigType/AddConfigPath) ahead of building its own
// config.Manager. Flags bound via BindPFlag take precedence over the config
// file, which takes precedence over the defaults set here.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration a cmd/task-orchestrator invocation
// runs with.
type Settings struct {
	ManifestsDir   string
	StateFile      string
	LogLevel       string
	ServeAddr      string
	MetricsEnabled bool
}

// Manager wraps a *viper.Viper pre-seeded with task-orchestrator's defaults
// and config file search path, mirroring the teacher's config.Manager being
// the single thing CLI commands reach into for settings.
type Manager struct {
	v *viper.Viper
}

// NewManager builds a Manager with defaults set and the config file (if
// present) read in. A missing config file is not an error — task-orchestrator
// runs perfectly well from flags and defaults alone.
func NewManager() (*Manager, error) {
	v := viper.New()

	v.SetConfigName("task-orchestrator")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.config/task-orchestrator")
	v.AddConfigPath(".")

	v.SetDefault("manifestsDir", "./manifests")
	v.SetDefault("stateFile", "./task-orchestrator.state.json")
	v.SetDefault("logLevel", "info")
	v.SetDefault("serveAddr", "")
	v.SetDefault("metricsEnabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	return &Manager{v: v}, nil
}

// BindFlags wires a command's flag set into viper so any flag the user
// explicitly set on the command line overrides the config file and
// defaults, matching viper's standard flag/config/default precedence.
func (m *Manager) BindFlags(flags *pflag.FlagSet) error {
	return m.v.BindPFlags(flags)
}

// Settings reads the resolved configuration out of viper into a Settings
// value.
func (m *Manager) Settings() Settings {
	return Settings{
		ManifestsDir:   m.v.GetString("manifestsDir"),
		StateFile:      m.v.GetString("stateFile"),
		LogLevel:       m.v.GetString("logLevel"),
		ServeAddr:      m.v.GetString("serveAddr"),
		MetricsEnabled: m.v.GetBool("metricsEnabled"),
	}
}
