package github

import (
	"embed"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

//go:embed queries/*.graphql
var queryFS embed.FS

// Document is a parsed GraphQL query or mutation ready to be sent.
type Document struct {
	// Name is the file the document was loaded from, without extension.
	Name string
	// Operation is the operation name declared by the document.
	Operation string
	// Kind is "query" or "mutation".
	Kind string
	// Source is the raw document text.
	Source string
}

// The documents the project storage issues.
var (
	ListFieldsDocument      = MustLoad("list_fields")
	ListItemsDocument       = MustLoad("list_items")
	UpdateItemFieldDocument = MustLoad("update_item_field")
	ClearItemFieldDocument  = MustLoad("clear_item_field")
	DeleteItemDocument      = MustLoad("delete_item")
)

// Load reads and parses the embedded document queries/<name>.graphql.
// The document must declare exactly one named operation.
func Load(name string) (Document, error) {
	src, err := queryFS.ReadFile("queries/" + name + ".graphql")
	if err != nil {
		return Document{}, fmt.Errorf("read document %s: %w", name, err)
	}

	doc, perr := parser.ParseQuery(&ast.Source{Name: name + ".graphql", Input: string(src)})
	if perr != nil {
		return Document{}, fmt.Errorf("parse document %s: %w", name, perr)
	}
	if len(doc.Operations) != 1 {
		return Document{}, fmt.Errorf("document %s: want 1 operation, got %d", name, len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Name == "" {
		return Document{}, fmt.Errorf("document %s: operation must be named", name)
	}

	return Document{
		Name:      name,
		Operation: op.Name,
		Kind:      string(op.Operation),
		Source:    string(src),
	}, nil
}

// MustLoad is Load for package-level documents; it panics on error.
func MustLoad(name string) Document {
	d, err := Load(name)
	if err != nil {
		panic(err)
	}
	return d
}
