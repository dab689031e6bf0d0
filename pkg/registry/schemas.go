package registry

import (
	"fmt"
	"strings"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Schemas returns the payload schema of every registered action type.
func (r *Registry) Schemas() map[models.ActionType]map[string]any {
	schemas := make(map[models.ActionType]map[string]any)

	for _, actionType := range r.Types() {
		factory, _ := r.Get(actionType)
		schemas[actionType] = factory.Schema()
	}

	return schemas
}

// CheckPayload validates a raw JSON variant payload against the schema of actionType.
// It returns the schema violations; an error is returned only when the check itself fails.
func (r *Registry) CheckPayload(actionType models.ActionType, payload []byte) ([]string, error) {
	factory, ok := r.Get(actionType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, actionType)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s payload: %w", actionType, err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, strings.TrimPrefix(desc.String(), "(root): "))
	}

	return violations, nil
}
