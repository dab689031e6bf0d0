package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/engine"
	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/registry"
	"github.com/hsetrack/hseflow/pkg/validation"
	"github.com/urfave/cli/v3"
)

var errInvalidActions = errors.New("one or more actions are invalid")

// ActionReport is the validation outcome of one action in a file.
type ActionReport struct {
	Index      int                       `json:"index"`
	Type       models.ActionType         `json:"type"`
	Title      string                    `json:"title,omitempty"`
	Validation models.WorkflowValidation `json:"validation"`
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate the actions in a JSON file without executing them",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			logLevelFlag(),
		},
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()
			if path == "" {
				return errors.New("a file with one action or an array of actions is required")
			}

			data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			reports, err := validateActions(engine.DefaultRegistry(log.Discard()), data, time.Now())
			if err != nil {
				return err
			}

			return writeReports(os.Stdout, reports)
		},
	}
}

// validateActions checks every action in data, a JSON object or array of objects.
func validateActions(reg *registry.Registry, data []byte, now time.Time) ([]ActionReport, error) {
	actions, err := decodeActions(data)
	if err != nil {
		return nil, err
	}

	reports := make([]ActionReport, 0, len(actions))

	for i, raw := range actions {
		var action models.WorkflowAction

		err := json.Unmarshal(raw, &action)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}

		result := validation.Validate(action, now)

		var fields map[string]json.RawMessage

		err = json.Unmarshal(raw, &fields)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}

		if payload, ok := fields[string(action.Type)]; ok {
			violations, err := reg.CheckPayload(action.Type, payload)
			if err != nil && !errors.Is(err, registry.ErrNotRegistered) {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}

			for _, violation := range violations {
				result.AddError("Schema: " + violation)
			}
		}

		reports = append(reports, ActionReport{Index: i, Type: action.Type, Title: action.Title, Validation: result})
	}

	return reports, nil
}

func decodeActions(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var actions []json.RawMessage

		err := json.Unmarshal(data, &actions)
		if err != nil {
			return nil, fmt.Errorf("failed to decode actions: %w", err)
		}

		return actions, nil
	}

	if !json.Valid(data) {
		return nil, errors.New("failed to decode action: invalid JSON")
	}

	return []json.RawMessage{data}, nil
}

func writeReports(w io.Writer, reports []ActionReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(reports)
	if err != nil {
		return err
	}

	for _, report := range reports {
		if !report.Validation.IsValid {
			return errInvalidActions
		}
	}

	return nil
}
