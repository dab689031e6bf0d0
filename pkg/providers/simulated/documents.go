package simulated

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hsetrack/hseflow/pkg/config"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

const initialVersion = "1.0"

var documentStatuses = map[models.DocumentOperation]string{
	models.DocumentCreate:  "created",
	models.DocumentUpdate:  "updated",
	models.DocumentReview:  "in_review",
	models.DocumentApprove: "approved",
	models.DocumentArchive: "archived",
}

// DocumentProvider simulates sharepoint, google-drive and dropbox stores.
type DocumentProvider struct {
	backend

	mu       sync.Mutex
	versions map[string]string
}

// NewDocumentProvider returns the simulated back end named by cfg.Provider.
func NewDocumentProvider(cfg models.ProviderConfig, clock clockwork.Clock) (*DocumentProvider, error) {
	b, err := newBackend("documents", cfg.Provider, config.SupportedProviders("documents"), cfg.Config, clock)
	if err != nil {
		return nil, err
	}

	return &DocumentProvider{backend: b, versions: make(map[string]string)}, nil
}

// Apply performs the document operation and reports the resulting version.
func (p *DocumentProvider) Apply(ctx context.Context, document models.DocumentAction) (models.DocumentResult, error) {
	status, ok := documentStatuses[document.Operation]
	if !ok {
		return models.DocumentResult{}, fmt.Errorf("unsupported document action %q", document.Operation)
	}

	err := p.call(ctx, string(document.Operation))
	if err != nil {
		return models.DocumentResult{}, err
	}

	return models.DocumentResult{
		DocumentID: document.DocumentID,
		Operation:  document.Operation,
		Status:     status,
		Provider:   p.name,
		Version:    p.nextVersion(document),
		URL:        p.documentURL(document.DocumentID),
	}, nil
}

func (p *DocumentProvider) nextVersion(document models.DocumentAction) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, known := p.versions[document.DocumentID]

	var version string

	switch {
	case document.Version != "":
		version = document.Version
	case document.Operation == models.DocumentCreate || !known:
		version = initialVersion
	case document.Operation == models.DocumentUpdate:
		version = bumpMinor(current)
	default:
		version = current
	}

	p.versions[document.DocumentID] = version

	return version
}

func bumpMinor(version string) string {
	major, minor, found := strings.Cut(version, ".")
	if !found {
		return version + ".1"
	}

	n, err := strconv.Atoi(minor)
	if err != nil {
		return version + ".1"
	}

	return major + "." + strconv.Itoa(n+1)
}

func (p *DocumentProvider) documentURL(documentID string) string {
	switch p.name {
	case models.DocumentProviderGoogleDrive:
		return p.url("https://drive.google.com", "file", "d", documentID)
	case models.DocumentProviderDropbox:
		return p.url("https://www.dropbox.com", "home", documentID)
	default:
		return p.url("https://hseflow.sharepoint.com", "sites", "hse", "Shared Documents", documentID)
	}
}
