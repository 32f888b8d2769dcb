package note

import (
	"encoding/json"
	"strings"
)

// Note is a node of the note tree returned by the backend.
type Note struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Children []Note `json:"children"`
}

// UnmarshalJSON accepts both "id" and "_id" as the identifier key.
func (n *Note) UnmarshalJSON(data []byte) error {
	type alias Note
	var raw struct {
		alias
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Note(raw.alias)
	if n.ID == "" {
		n.ID = raw.DocID
	}
	return nil
}

// CreateInput is the body sent to the backend to create a note.
// ParentNote is serialised as null for a top-level note.
type CreateInput struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	ParentNote *string `json:"parentNote"`
}

// NewCreateInput builds a CreateInput from raw form values.
// POST: ParentNote is nil when parent is blank
func NewCreateInput(title, content, parent string) CreateInput {
	in := CreateInput{Title: title, Content: content}
	if p := strings.TrimSpace(parent); p != "" {
		in.ParentNote = &p
	}
	return in
}

// Option is a flattened tree entry for the parent picker.
type Option struct {
	ID    string
	Title string
	Depth int
}

// Flatten walks the tree depth-first and returns one Option per note.
// PRE: none
// POST: Options are in pre-order; Depth is 0 for roots
func Flatten(tree []Note) []Option {
	var out []Option
	var walk func(nodes []Note, depth int)
	walk = func(nodes []Note, depth int) {
		for _, n := range nodes {
			out = append(out, Option{ID: n.ID, Title: n.Title, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(tree, 0)
	return out
}
