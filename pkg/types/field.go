package types

// FieldType is the remote data type of a plain (Normal) custom field.
type FieldType string

// Remote field data types. Only Date, Number, Text and Title accept writes;
// the rest are rendered on read and rejected as read-only on write.
const (
	FieldTypeAssignees          FieldType = "ASSIGNEES"
	FieldTypeDate               FieldType = "DATE"
	FieldTypeLabels             FieldType = "LABELS"
	FieldTypeLinkedPullRequests FieldType = "LINKED_PULL_REQUESTS"
	FieldTypeMilestone          FieldType = "MILESTONE"
	FieldTypeNumber             FieldType = "NUMBER"
	FieldTypeRepository         FieldType = "REPOSITORY"
	FieldTypeReviewers          FieldType = "REVIEWERS"
	FieldTypeText               FieldType = "TEXT"
	FieldTypeTitle              FieldType = "TITLE"
	FieldTypeTrackedBy          FieldType = "TRACKED_BY"
	FieldTypeTracks             FieldType = "TRACKS"
)

// Writable reports whether values of this type can be written back.
func (t FieldType) Writable() bool {
	switch t {
	case FieldTypeDate, FieldTypeNumber, FieldTypeText, FieldTypeTitle:
		return true
	}
	return false
}

// Field is one custom column definition of a remote project.
type Field struct {
	ID   string
	Name string
	Kind FieldKind
}

// FieldKind is the closed set of field variants: NormalKind,
// SingleSelectKind and IterationKind. Code that switches on a FieldKind must
// handle all three and treat anything else as unsupported.
type FieldKind interface {
	fieldKind()
}

// NormalKind is a scalar field.
type NormalKind struct {
	Type FieldType
}

// SingleSelectKind is a field whose value is one of a fixed list of options.
// Its visible value is the option name.
type SingleSelectKind struct {
	Options []FieldOption
}

// IterationKind is a field whose value is one iteration (sprint) of a
// schedule. Its visible value is the iteration title.
type IterationKind struct {
	Duration            int64
	StartDay            int64
	Iterations          []FieldIteration
	CompletedIterations []FieldIteration
}

func (NormalKind) fieldKind()       {}
func (SingleSelectKind) fieldKind() {}
func (IterationKind) fieldKind()    {}

// FieldOption is one choice of a single-select field.
type FieldOption struct {
	ID   string
	Name string
}

// FieldIteration is one iteration of an iteration field.
type FieldIteration struct {
	ID        string
	Title     string
	Duration  int64
	StartDate string
}

// OptionByName returns the option whose name equals name exactly.
func (k SingleSelectKind) OptionByName(name string) (FieldOption, bool) {
	for _, o := range k.Options {
		if o.Name == name {
			return o, true
		}
	}
	return FieldOption{}, false
}

// All returns the active iterations followed by the completed ones.
func (k IterationKind) All() []FieldIteration {
	all := make([]FieldIteration, 0, len(k.Iterations)+len(k.CompletedIterations))
	all = append(all, k.Iterations...)
	return append(all, k.CompletedIterations...)
}

// ByTitle returns the first iteration, active or completed, titled title.
func (k IterationKind) ByTitle(title string) (FieldIteration, bool) {
	for _, it := range k.All() {
		if it.Title == title {
			return it, true
		}
	}
	return FieldIteration{}, false
}

// ByID returns the iteration, active or completed, with the given id.
func (k IterationKind) ByID(id string) (FieldIteration, bool) {
	for _, it := range k.All() {
		if it.ID == id {
			return it, true
		}
	}
	return FieldIteration{}, false
}
