package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/hsetrack/hseflow/pkg/persistence/badger"
	"github.com/hsetrack/hseflow/pkg/persistence/file"
	"github.com/hsetrack/hseflow/pkg/persistence/memory"
	"github.com/hsetrack/hseflow/pkg/persistence/postgresql"
	"github.com/hsetrack/hseflow/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"memory", "file", "postgres", "postgresql", "redis", "rediss", "badger"}

// NewRepository opens the execution repository selected by the scheme of databaseURL.
// A URL without a scheme is treated as a directory for the file repository.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.ExecutionRepository, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Opening execution repository", "provider", provider)

	switch provider {
	case "memory":
		return memory.NewRepository(), nil
	case "postgres", "postgresql":
		return postgresql.NewRepository(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewRepository(ctx, logger, databaseURL)
	case "badger":
		return badger.NewRepository(logger, databaseURL)
	case "file":
		return file.NewRepository(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q (supported: %v)", provider, supportedPersistenceProviders)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
