package tree

import "github.com/bytedance/sonic"

// Kind is the type of a node
type Kind string

const (
	File      Kind = "file"
	Directory Kind = "directory"
)

// Node is one entry of a directory snapshot
type Node struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Children []Node `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory
func (n Node) IsDir() bool {
	return n.Kind == Directory
}

// MarshalJSON always emits children for directories, even when empty, and
// never for files.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Kind != Directory {
		return sonic.Marshal(struct {
			Name string `json:"name"`
			Kind Kind   `json:"kind"`
		}{n.Name, n.Kind})
	}

	children := n.Children
	if children == nil {
		children = []Node{}
	}
	return sonic.Marshal(struct {
		Name     string `json:"name"`
		Kind     Kind   `json:"kind"`
		Children []Node `json:"children"`
	}{n.Name, n.Kind, children})
}
