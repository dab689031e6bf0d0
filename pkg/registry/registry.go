// Package registry keeps the executor factories available to the engine.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"sync"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
)

// ErrNotRegistered is returned for an action type without a factory.
var ErrNotRegistered = errors.New("action type not registered")

// pluginSymbol is the exported variable a plugin must provide.
const pluginSymbol = "Executor"

type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	factories map[models.ActionType]protocol.ExecutorFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		logger:    log,
		factories: make(map[models.ActionType]protocol.ExecutorFactory),
	}
}

// Register adds factory, replacing any factory registered for the same type.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[factory.ID()]; exists {
		r.logger.Warn("Replacing executor factory", "action_type", factory.ID())
	}

	r.factories[factory.ID()] = factory
}

// Get returns the factory for actionType.
func (r *Registry) Get(actionType models.ActionType) (protocol.ExecutorFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[actionType]

	return factory, ok
}

// Types returns the registered action types in a stable order.
func (r *Registry) Types() []models.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]models.ActionType, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	slices.Sort(types)

	return types
}

// Create builds the executor for actionType with its provider configuration.
func (r *Registry) Create(actionType models.ActionType, cfg models.ProviderConfig, deps protocol.Dependencies) (protocol.Executor, error) {
	factory, ok := r.Get(actionType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, actionType)
	}

	executor, err := factory.Create(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s executor: %w", actionType, err)
	}

	return executor, nil
}

// CreateAll builds one executor per registered type, selecting providers from apis.
func (r *Registry) CreateAll(apis models.ExternalAPIs, deps protocol.Dependencies) (map[models.ActionType]protocol.Executor, error) {
	executors := make(map[models.ActionType]protocol.Executor)

	for _, actionType := range r.Types() {
		executor, err := r.Create(actionType, ProviderFor(apis, actionType), deps)
		if err != nil {
			return nil, err
		}

		executors[actionType] = executor
	}

	return executors, nil
}

// ProviderFor returns the provider configuration serving actionType.
// Notifications have no configurable provider.
func ProviderFor(apis models.ExternalAPIs, actionType models.ActionType) models.ProviderConfig {
	switch actionType {
	case models.ActionTypeEmail:
		return apis.Email
	case models.ActionTypeMeeting:
		return apis.Calendar
	case models.ActionTypeTask:
		return apis.Tasks
	case models.ActionTypeDocument:
		return apis.Documents
	default:
		return models.ProviderConfig{}
	}
}

// LoadPlugins opens every *.so under pluginsPath/executors and returns the
// factories they export as the Executor symbol.
func (r *Registry) LoadPlugins(pluginsPath string) ([]protocol.ExecutorFactory, error) {
	rootPath := pluginsPath + "/executors"

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*/*.so")
	if err != nil {
		return nil, err
	}

	l := r.logger.With(slog.String("path", rootPath))
	l.Info("Loading executor plugins", "count", len(pluginPathList))

	factories := make([]protocol.ExecutorFactory, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(pluginSymbol)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p, err)
		}

		factory, ok := v.(protocol.ExecutorFactory)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s is %T, not an executor factory", p, pluginSymbol, v)
		}

		factories = append(factories, factory)

		l.Info("Loaded executor plugin", slog.String("plugin", p), slog.String("action_type", string(factory.ID())))
	}

	return factories, nil
}
