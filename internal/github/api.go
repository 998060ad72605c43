package github

import (
	"context"
	"fmt"
)

// ListFields returns the project id and field configurations of the
// owner's project. A nil project means neither an organization nor a user
// named owner has the project; the partial errors explaining why are
// returned alongside.
func (c *Client) ListFields(ctx context.Context, owner string, number int) (*ProjectFields, Errors, error) {
	var data ListFieldsData
	errs, err := c.Execute(ctx, ListFieldsDocument, ListFieldsVariables{
		Owner:         owner,
		ProjectNumber: number,
	}, &data)
	if err != nil {
		return nil, nil, err
	}
	return data.Project(), errs, nil
}

// ListItems returns one page of project items starting after the cursor.
func (c *Client) ListItems(ctx context.Context, projectID string, after *string) (*ItemConnection, error) {
	var data ListItemsData
	errs, err := c.Execute(ctx, ListItemsDocument, ListItemsVariables{
		ProjectID: projectID,
		After:     after,
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Node == nil || data.Node.Items == nil {
		if len(errs) > 0 {
			return nil, &RemoteError{Operation: ListItemsDocument.Operation, Errors: errs}
		}
		return nil, fmt.Errorf("%s: node %s is not a project", ListItemsDocument.Operation, projectID)
	}
	return data.Node.Items, nil
}

// UpdateItemField sets one field of one item.
func (c *Client) UpdateItemField(ctx context.Context, projectID, itemID, fieldID string, value FieldValue) error {
	var out struct{}
	return c.Mutate(ctx, UpdateItemFieldDocument, UpdateItemFieldVariables{
		ProjectID: projectID,
		ItemID:    itemID,
		FieldID:   fieldID,
		Value:     value,
	}, &out)
}

// ClearItemField removes the value of one field of one item.
func (c *Client) ClearItemField(ctx context.Context, projectID, itemID, fieldID string) error {
	var out struct{}
	return c.Mutate(ctx, ClearItemFieldDocument, ClearItemFieldVariables{
		ProjectID: projectID,
		ItemID:    itemID,
		FieldID:   fieldID,
	}, &out)
}

// DeleteItem removes one item from the project.
func (c *Client) DeleteItem(ctx context.Context, projectID, itemID string) error {
	var out struct{}
	return c.Mutate(ctx, DeleteItemDocument, DeleteItemVariables{
		ProjectID: projectID,
		ItemID:    itemID,
	}, &out)
}
