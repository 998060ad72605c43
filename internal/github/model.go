package github

// GraphQL __typename values the project storage dispatches on.
const (
	TypeProjectV2Field             = "ProjectV2Field"
	TypeProjectV2SingleSelectField = "ProjectV2SingleSelectField"
	TypeProjectV2IterationField    = "ProjectV2IterationField"

	TypeDraftIssue  = "DraftIssue"
	TypeIssue       = "Issue"
	TypePullRequest = "PullRequest"

	TypeDateValue         = "ProjectV2ItemFieldDateValue"
	TypeIterationValue    = "ProjectV2ItemFieldIterationValue"
	TypeLabelValue        = "ProjectV2ItemFieldLabelValue"
	TypeMilestoneValue    = "ProjectV2ItemFieldMilestoneValue"
	TypeNumberValue       = "ProjectV2ItemFieldNumberValue"
	TypePullRequestValue  = "ProjectV2ItemFieldPullRequestValue"
	TypeRepositoryValue   = "ProjectV2ItemFieldRepositoryValue"
	TypeReviewerValue     = "ProjectV2ItemFieldReviewerValue"
	TypeSingleSelectValue = "ProjectV2ItemFieldSingleSelectValue"
	TypeTextValue         = "ProjectV2ItemFieldTextValue"
	TypeUserValue         = "ProjectV2ItemFieldUserValue"
)

// ListFieldsVariables are the variables of the list_fields document.
type ListFieldsVariables struct {
	Owner         string `json:"owner"`
	ProjectNumber int    `json:"projectNumber"`
}

// ListFieldsData is the data of a list_fields response. The owner is looked
// up both as an organization and as a user; at most one resolves.
type ListFieldsData struct {
	Organization *ProjectOwner `json:"organization"`
	User         *ProjectOwner `json:"user"`
}

// Project returns the project of whichever owner resolved, or nil.
func (d *ListFieldsData) Project() *ProjectFields {
	if d.Organization != nil && d.Organization.ProjectV2 != nil {
		return d.Organization.ProjectV2
	}
	if d.User != nil && d.User.ProjectV2 != nil {
		return d.User.ProjectV2
	}
	return nil
}

type ProjectOwner struct {
	ProjectV2 *ProjectFields `json:"projectV2"`
}

type ProjectFields struct {
	ID     string `json:"id"`
	Fields struct {
		Nodes []*FieldNode `json:"nodes"`
	} `json:"fields"`
}

// FieldNode is one field configuration. Which members are set depends on
// Typename.
type FieldNode struct {
	Typename      string                  `json:"__typename"`
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	DataType      string                  `json:"dataType"`
	Options       []OptionNode            `json:"options"`
	Configuration *IterationConfiguration `json:"configuration"`
}

type OptionNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type IterationConfiguration struct {
	Duration            int64           `json:"duration"`
	StartDay            int64           `json:"startDay"`
	Iterations          []IterationNode `json:"iterations"`
	CompletedIterations []IterationNode `json:"completedIterations"`
}

type IterationNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"`
	StartDate string `json:"startDate"`
}

// ListItemsVariables are the variables of the list_items document. A nil
// After requests the first page.
type ListItemsVariables struct {
	ProjectID string  `json:"projectId"`
	After     *string `json:"after"`
}

// ListItemsData is the data of a list_items response.
type ListItemsData struct {
	Node *struct {
		Items *ItemConnection `json:"items"`
	} `json:"node"`
}

type ItemConnection struct {
	PageInfo PageInfo    `json:"pageInfo"`
	Nodes    []*ItemNode `json:"nodes"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type ItemNode struct {
	ID          string       `json:"id"`
	Content     *ItemContent `json:"content"`
	FieldValues struct {
		Nodes []*FieldValueNode `json:"nodes"`
	} `json:"fieldValues"`
}

// ItemContent is the issue, pull request or draft issue behind an item.
type ItemContent struct {
	Typename   string           `json:"__typename"`
	Title      string           `json:"title"`
	Number     *int64           `json:"number"`
	Repository *RepositoryRef   `json:"repository"`
	Assignees  *UserConnection  `json:"assignees"`
	Labels     *LabelConnection `json:"labels"`
}

type RepositoryRef struct {
	Name          string `json:"name"`
	NameWithOwner string `json:"nameWithOwner"`
}

type UserConnection struct {
	Nodes []*struct {
		Login string `json:"login"`
	} `json:"nodes"`
}

// Logins returns the non-nil user logins.
func (c *UserConnection) Logins() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n != nil {
			out = append(out, n.Login)
		}
	}
	return out
}

type LabelConnection struct {
	Nodes []*struct {
		Name string `json:"name"`
	} `json:"nodes"`
}

// Names returns the non-nil label names.
func (c *LabelConnection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n != nil {
			out = append(out, n.Name)
		}
	}
	return out
}

type PullRequestConnection struct {
	Nodes []*struct {
		Title string `json:"title"`
	} `json:"nodes"`
}

type ReviewerConnection struct {
	Nodes []*struct {
		Typename string `json:"__typename"`
		Login    string `json:"login"`
		Name     string `json:"name"`
	} `json:"nodes"`
}

type MilestoneRef struct {
	Title string `json:"title"`
}

// FieldRef identifies the field a value belongs to.
type FieldRef struct {
	ID string `json:"id"`
}

// FieldValueNode is one field value of an item. Which members are set
// depends on Typename.
type FieldValueNode struct {
	Typename string    `json:"__typename"`
	Field    *FieldRef `json:"field"`

	Date   *string  `json:"date"`
	Number *float64 `json:"number"`
	Text   *string  `json:"text"`

	// Single select.
	Name     *string `json:"name"`
	OptionID *string `json:"optionId"`

	// Iteration.
	Title       *string `json:"title"`
	IterationID *string `json:"iterationId"`

	Labels       *LabelConnection       `json:"labels"`
	Users        *UserConnection        `json:"users"`
	Milestone    *MilestoneRef          `json:"milestone"`
	Repository   *RepositoryRef         `json:"repository"`
	PullRequests *PullRequestConnection `json:"pullRequests"`
	Reviewers    *ReviewerConnection    `json:"reviewers"`
}

// FieldID returns the id of the field the value belongs to, or "".
func (n *FieldValueNode) FieldID() string {
	if n.Field == nil {
		return ""
	}
	return n.Field.ID
}

// FieldValue is the ProjectV2FieldValue input object. Exactly one member is
// set per update.
type FieldValue struct {
	Date                 *string  `json:"date,omitempty"`
	IterationID          *string  `json:"iterationId,omitempty"`
	Number               *float64 `json:"number,omitempty"`
	SingleSelectOptionID *string  `json:"singleSelectOptionId,omitempty"`
	Text                 *string  `json:"text,omitempty"`
}

// UpdateItemFieldVariables are the variables of update_item_field.
type UpdateItemFieldVariables struct {
	ProjectID string     `json:"projectId"`
	ItemID    string     `json:"itemId"`
	FieldID   string     `json:"fieldId"`
	Value     FieldValue `json:"value"`
}

// ClearItemFieldVariables are the variables of clear_item_field.
type ClearItemFieldVariables struct {
	ProjectID string `json:"projectId"`
	ItemID    string `json:"itemId"`
	FieldID   string `json:"fieldId"`
}

// DeleteItemVariables are the variables of delete_item.
type DeleteItemVariables struct {
	ProjectID string `json:"projectId"`
	ItemID    string `json:"itemId"`
}
