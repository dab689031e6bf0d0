// Package simulated provides in-process provider back ends that mimic the external
// email, calendar, task tracker and document store integrations.
//
// Each back end honours two settings from the opaque provider config blob:
// "latency" (a duration string or a number of milliseconds) and "failureRate"
// (a probability in [0,1] that a call fails with ErrProviderUnavailable).
package simulated

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/jonboulle/clockwork"
)

// ErrProviderUnavailable is returned when a simulated call is configured to fail.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrInvalidSettings is returned for a malformed provider config blob.
var ErrInvalidSettings = errors.New("invalid provider settings")

// Settings are the simulation knobs shared by every back end.
type Settings struct {
	Latency     time.Duration
	FailureRate float64
	BaseURL     string
}

// ParseSettings reads Settings from a provider config blob.
func ParseSettings(raw map[string]any) (Settings, error) {
	var settings Settings

	if v, ok := raw["latency"]; ok {
		latency, err := parseDuration(v)
		if err != nil {
			return Settings{}, err
		}

		settings.Latency = latency
	}

	if v, ok := raw["failureRate"]; ok {
		rate, ok := toFloat(v)
		if !ok || rate < 0 || rate > 1 {
			return Settings{}, fmt.Errorf("%w: failureRate must be a number in [0,1], got %v", ErrInvalidSettings, v)
		}

		settings.FailureRate = rate
	}

	if v, ok := raw["baseUrl"]; ok {
		s, ok := v.(string)
		if !ok {
			return Settings{}, fmt.Errorf("%w: baseUrl must be a string", ErrInvalidSettings)
		}

		settings.BaseURL = strings.TrimSuffix(s, "/")
	}

	return settings, nil
}

func parseDuration(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("%w: latency %q", ErrInvalidSettings, s)
		}

		return d, nil
	}

	ms, ok := toFloat(v)
	if !ok || ms < 0 {
		return 0, fmt.Errorf("%w: latency must be a duration or milliseconds, got %v", ErrInvalidSettings, v)
	}

	return time.Duration(ms * float64(time.Millisecond)), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

type backend struct {
	name     string
	settings Settings
	clock    clockwork.Clock
	chance   func() float64
}

func newBackend(capability, name string, supported []string, raw map[string]any, clock clockwork.Clock) (backend, error) {
	if !contains(supported, name) {
		return backend{}, fmt.Errorf("%w: %s provider %q", config.ErrUnsupportedProvider, capability, name)
	}

	settings, err := ParseSettings(raw)
	if err != nil {
		return backend{}, fmt.Errorf("%s provider %s: %w", capability, name, err)
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return backend{name: name, settings: settings, clock: clock, chance: rand.Float64}, nil
}

// Name returns the configured provider name.
func (b backend) Name() string {
	return b.name
}

// call simulates one round trip to the external system.
func (b backend) call(ctx context.Context, operation string) error {
	if b.settings.Latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.clock.After(b.settings.Latency):
		}
	}

	err := ctx.Err()
	if err != nil {
		return err
	}

	if b.settings.FailureRate > 0 && b.chance() < b.settings.FailureRate {
		return fmt.Errorf("%w: %s %s", ErrProviderUnavailable, b.name, operation)
	}

	return nil
}

func (b backend) url(defaultBase string, path ...string) string {
	base := b.settings.BaseURL
	if base == "" {
		base = defaultBase
	}

	return base + "/" + strings.Join(path, "/")
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}

	return false
}
