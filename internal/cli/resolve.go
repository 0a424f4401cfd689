package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
)

// resolveWorkItemID resolves a work item identifier which can be:
//   - A full UUID (passed through when it exists)
//   - A unique ID prefix, as printed by list commands
func resolveWorkItemID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("work item ID is required")
	}
	if _, err := app.WorkItems.GetByID(ctx, input); err == nil {
		return input, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	items, err := app.WorkItems.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, w := range items {
		if strings.HasPrefix(w.ID, input) {
			matches = append(matches, w.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("work item %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("work item prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func resolveWorkItemIDs(ctx context.Context, app *App, inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := resolveWorkItemID(ctx, app, in)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
