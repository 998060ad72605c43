package project

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// skippedFieldNames are remote fields never exposed as custom columns: the
// reserved columns themselves and the built-in fields whose data already
// appears in them or is not addressable per item.
var skippedFieldNames = map[string]bool{
	types.ColumnID:         true,
	types.ColumnRepository: true,
	types.ColumnIssue:      true,
	types.ColumnTitle:      true,
	types.ColumnAssignees:  true,
	types.ColumnLabels:     true,
	"Milestone":            true,
	"Linked Pull Requests": true,
	"Reviewers":            true,
}

// listFields resolves the project and converts its field configurations.
func (b *Backend) listFields(ctx context.Context) (string, []types.Field, error) {
	project, errs, err := b.remote.ListFields(ctx, b.owner, b.number)
	if err != nil {
		return "", nil, fmt.Errorf("list fields: %w", err)
	}
	if project == nil {
		err := fmt.Errorf("%w: %s #%d", types.ErrProjectNotFound, b.owner, b.number)
		if len(errs) > 0 {
			err = fmt.Errorf("%w: %s", err, errs.Messages())
		}
		return "", nil, err
	}
	if len(errs) > 0 {
		b.log.Debugw("ignoring partial errors of resolved project",
			"project", project.ID,
			"errors", errs.Messages())
	}
	return project.ID, convertFields(project.Fields.Nodes, b.log), nil
}

// convertFields maps field configurations to fields, dropping skipped names
// and configurations of unknown type. Order is preserved.
func convertFields(nodes []*github.FieldNode, log *zap.SugaredLogger) []types.Field {
	fields := make([]types.Field, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || skippedFieldNames[n.Name] {
			continue
		}
		kind, ok := convertKind(n)
		if !ok {
			log.Warnw("skipping field of unknown type", "field", n.Name, "type", n.Typename)
			continue
		}
		fields = append(fields, types.Field{ID: n.ID, Name: n.Name, Kind: kind})
	}
	return fields
}

func convertKind(n *github.FieldNode) (types.FieldKind, bool) {
	switch n.Typename {
	case github.TypeProjectV2Field:
		return types.NormalKind{Type: types.FieldType(n.DataType)}, true

	case github.TypeProjectV2SingleSelectField:
		opts := make([]types.FieldOption, len(n.Options))
		for i, o := range n.Options {
			opts[i] = types.FieldOption{ID: o.ID, Name: o.Name}
		}
		return types.SingleSelectKind{Options: opts}, true

	case github.TypeProjectV2IterationField:
		kind := types.IterationKind{}
		if cfg := n.Configuration; cfg != nil {
			kind.Duration = cfg.Duration
			kind.StartDay = cfg.StartDay
			kind.Iterations = convertIterations(cfg.Iterations)
			kind.CompletedIterations = convertIterations(cfg.CompletedIterations)
		}
		return kind, true
	}
	return nil, false
}

func convertIterations(nodes []github.IterationNode) []types.FieldIteration {
	out := make([]types.FieldIteration, len(nodes))
	for i, n := range nodes {
		out[i] = types.FieldIteration{
			ID:        n.ID,
			Title:     n.Title,
			Duration:  n.Duration,
			StartDate: n.StartDate,
		}
	}
	return out
}
