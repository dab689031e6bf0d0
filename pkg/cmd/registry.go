// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/hsetrack/hseflow/pkg/engine"
	"github.com/hsetrack/hseflow/pkg/registry"
)

// NewRegistry returns the built-in executor factories plus the plugins found under
// pluginsPath. A plugin replaces the built-in factory of the same action type.
func NewRegistry(log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := engine.DefaultRegistry(log)

	if pluginsPath == "" {
		return reg, nil
	}

	factories, err := reg.LoadPlugins(pluginsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load executor plugins: %w", err)
	}

	for _, factory := range factories {
		reg.Register(factory)
	}

	return reg, nil
}
