package project

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// unknownValue is shown for a single-select or iteration value that matches
// none of the field's configured choices.
const unknownValue = "Unknown"

// fetchItems pages through all items of the project and builds one row per
// item, in remote order.
func (b *Backend) fetchItems(ctx context.Context, projectID string, fields []types.Field) ([]types.KeyedRow, error) {
	nodes, err := b.fetchItemNodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	rows := make([]types.KeyedRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, types.KeyedRow{Key: n.ID, Row: itemRow(n, fields)})
	}
	return rows, nil
}

func (b *Backend) fetchItemNodes(ctx context.Context, projectID string) ([]*github.ItemNode, error) {
	var (
		nodes []*github.ItemNode
		after *string
		page  int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page++
		if b.maxPages > 0 && page > b.maxPages {
			return nil, fmt.Errorf("%w: project has more than %d pages of items", types.ErrPageLimit, b.maxPages)
		}

		conn, err := b.remote.ListItems(ctx, projectID, after)
		if err != nil {
			return nil, fmt.Errorf("list items page %d: %w", page, err)
		}
		for _, n := range conn.Nodes {
			if n != nil {
				nodes = append(nodes, n)
			}
		}

		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == nil {
			break
		}
		after = conn.PageInfo.EndCursor
	}
	b.log.Debugw("fetched items", "project", projectID, "pages", page, "items", len(nodes))
	return nodes, nil
}

// itemRow lays out one item: the reserved columns followed by one cell per
// field, in field order.
func itemRow(n *github.ItemNode, fields []types.Field) types.Row {
	row := make(types.Row, 0, len(types.ReservedColumns)+len(fields))
	row = append(row, types.Str(n.ID))
	row = append(row, contentCells(n.Content)...)

	values := make(map[string]*github.FieldValueNode, len(n.FieldValues.Nodes))
	for _, v := range n.FieldValues.Nodes {
		if v == nil {
			continue
		}
		if id := v.FieldID(); id != "" {
			values[id] = v
		}
	}
	for _, f := range fields {
		row = append(row, fieldCell(f, values[f.ID]))
	}
	return row
}

// contentCells returns Repository, Issue, Title, Assignees and Labels.
func contentCells(c *github.ItemContent) types.Row {
	if c == nil {
		return types.Row{types.Null, types.Null, types.Str(""), types.Null, types.Null}
	}
	switch c.Typename {
	case github.TypeDraftIssue:
		return types.Row{
			types.Null,
			types.Null,
			types.Str(c.Title),
			types.Strs(c.Assignees.Logins()...),
			types.List(),
		}
	case github.TypeIssue, github.TypePullRequest:
		repo, issue := types.Null, types.Null
		if c.Repository != nil {
			repo = types.Str(c.Repository.NameWithOwner)
		}
		if c.Number != nil {
			issue = types.Int(*c.Number)
		}
		return types.Row{
			repo,
			issue,
			types.Str(c.Title),
			types.Strs(c.Assignees.Logins()...),
			types.Strs(c.Labels.Names()...),
		}
	}
	return types.Row{types.Null, types.Null, types.Str(c.Title), types.Null, types.Null}
}

// fieldCell renders the value an item holds for f; nil means no value.
func fieldCell(f types.Field, v *github.FieldValueNode) types.Value {
	if v == nil {
		return types.Null
	}
	switch k := f.Kind.(type) {
	case types.NormalKind:
		return normalCell(v)

	case types.SingleSelectKind:
		if v.Name == nil {
			return types.Null
		}
		if _, ok := k.OptionByName(*v.Name); ok {
			return types.Str(*v.Name)
		}
		return types.Str(unknownValue)

	case types.IterationKind:
		if v.Title == nil {
			return types.Null
		}
		if it, ok := k.ByTitle(*v.Title); ok {
			return types.Str(it.Title)
		}
		return types.Str(unknownValue)
	}
	return types.Null
}

// normalCell renders a plain field value as text. Numbers use the shortest
// decimal form so an unchanged value always renders the same way.
func normalCell(v *github.FieldValueNode) types.Value {
	switch v.Typename {
	case github.TypeDateValue:
		return strPtr(v.Date)
	case github.TypeTextValue:
		return strPtr(v.Text)
	case github.TypeNumberValue:
		if v.Number == nil {
			return types.Null
		}
		return types.Str(strconv.FormatFloat(*v.Number, 'f', -1, 64))
	case github.TypeLabelValue:
		return joined(v.Labels.Names())
	case github.TypeUserValue:
		return joined(v.Users.Logins())
	case github.TypeMilestoneValue:
		if v.Milestone == nil {
			return types.Null
		}
		return types.Str(v.Milestone.Title)
	case github.TypeRepositoryValue:
		if v.Repository == nil {
			return types.Null
		}
		return types.Str(v.Repository.NameWithOwner)
	case github.TypePullRequestValue:
		if v.PullRequests == nil {
			return types.Null
		}
		titles := make([]string, 0, len(v.PullRequests.Nodes))
		for _, pr := range v.PullRequests.Nodes {
			if pr != nil {
				titles = append(titles, pr.Title)
			}
		}
		return joined(titles)
	case github.TypeReviewerValue:
		if v.Reviewers == nil {
			return types.Null
		}
		names := make([]string, 0, len(v.Reviewers.Nodes))
		for _, r := range v.Reviewers.Nodes {
			switch {
			case r == nil:
			case r.Login != "":
				names = append(names, r.Login)
			default:
				names = append(names, r.Name)
			}
		}
		return joined(names)
	}
	return types.Null
}

func strPtr(s *string) types.Value {
	if s == nil {
		return types.Null
	}
	return types.Str(*s)
}

func joined(parts []string) types.Value {
	if len(parts) == 0 {
		return types.Null
	}
	return types.Str(strings.Join(parts, ", "))
}
