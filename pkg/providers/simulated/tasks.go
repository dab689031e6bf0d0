package simulated

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

// TaskProvider simulates jira, asana, trello and clickup trackers.
type TaskProvider struct {
	backend

	mu    sync.Mutex
	seq   int
	links map[string][]string
}

// NewTaskProvider returns the simulated back end named by cfg.Provider.
func NewTaskProvider(cfg models.ProviderConfig, clock clockwork.Clock) (*TaskProvider, error) {
	b, err := newBackend("tasks", cfg.Provider, config.SupportedProviders("tasks"), cfg.Config, clock)
	if err != nil {
		return nil, err
	}

	return &TaskProvider{backend: b, links: make(map[string][]string)}, nil
}

// CreateTask creates the parent issue.
func (p *TaskProvider) CreateTask(ctx context.Context, task models.TaskAction) (models.TaskResult, error) {
	err := p.call(ctx, "create task")
	if err != nil {
		return models.TaskResult{}, err
	}

	taskID := uuid.NewString()
	externalID := p.nextExternalID()

	return models.TaskResult{
		TaskID:     taskID,
		ExternalID: externalID,
		Status:     "created",
		Provider:   p.name,
		Title:      task.Title,
		Assignee:   task.Assignee,
		Priority:   task.Priority,
		URL:        p.issueURL(externalID),
	}, nil
}

// CreateSubtask creates a child issue under parentID.
func (p *TaskProvider) CreateSubtask(ctx context.Context, parentID string, subtask models.Subtask) (string, error) {
	err := p.call(ctx, "create subtask")
	if err != nil {
		return "", err
	}

	if parentID == "" {
		return "", fmt.Errorf("subtask %q: parent id is required", subtask.Title)
	}

	return p.nextExternalID(), nil
}

// LinkDependency records that taskID is blocked by dependsOn.
func (p *TaskProvider) LinkDependency(ctx context.Context, taskID, dependsOn string) error {
	err := p.call(ctx, "link dependency")
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.links[taskID] = append(p.links[taskID], dependsOn)

	return nil
}

// Dependencies returns the dependencies linked to taskID.
func (p *TaskProvider) Dependencies(taskID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.links[taskID]...)
}

func (p *TaskProvider) nextExternalID() string {
	p.mu.Lock()
	p.seq++
	n := p.seq
	p.mu.Unlock()

	switch p.name {
	case models.TaskProviderJira:
		return "HSE-" + strconv.Itoa(n)
	case models.TaskProviderAsana:
		return strconv.Itoa(1200000000000000 + n)
	case models.TaskProviderClickUp:
		return "cu-" + strconv.FormatInt(int64(n), 36)
	default:
		return fmt.Sprintf("%08x", n)
	}
}

func (p *TaskProvider) issueURL(externalID string) string {
	switch p.name {
	case models.TaskProviderJira:
		return p.url("https://hseflow.atlassian.net", "browse", externalID)
	case models.TaskProviderAsana:
		return p.url("https://app.asana.com", "0", "0", externalID)
	case models.TaskProviderTrello:
		return p.url("https://trello.com", "c", externalID)
	default:
		return p.url("https://app.clickup.com", "t", externalID)
	}
}
