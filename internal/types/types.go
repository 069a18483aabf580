// Package types defines every cross-package data structure used by the gitree CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatTree     = "tree"
	FormatText     = "txt"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// TreeNode is one entry of the selection result. Directory nodes own their children in traversal order;
// file nodes never have children.
type TreeNode struct {
	Path             string      `json:"path"`
	Name             string      `json:"name"`
	Type             string      `json:"type"`
	Children         []*TreeNode `json:"children,omitempty"`
	RemainingItems   int         `json:"remainingItems,omitempty"`
	TruncatedEntries bool        `json:"truncatedEntries,omitempty"`
}

// IsDirectory reports whether the node represents a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// Files returns every file path below the node in tree order.
func (node *TreeNode) Files() []string {
	var filePaths []string
	pending := []*TreeNode{node}
	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if current == nil {
			continue
		}
		if !current.IsDirectory() {
			filePaths = append(filePaths, current.Path)
			continue
		}
		for childIndex := len(current.Children) - 1; childIndex >= 0; childIndex-- {
			pending = append(pending, current.Children[childIndex])
		}
	}
	return filePaths
}

// CountEntries returns the number of nodes below the receiver, excluding the receiver itself.
func (node *TreeNode) CountEntries() int {
	if node == nil {
		return 0
	}
	total := 0
	for _, child := range node.Children {
		total += 1 + child.CountEntries()
	}
	return total
}

// Limit is an integer budget that can be switched off.
type Limit struct {
	Value    int
	Disabled bool
}

// Reached reports whether count has hit the limit.
func (limit Limit) Reached(count int) bool {
	return !limit.Disabled && count >= limit.Value
}

// Allows reports whether level is still within the limit.
func (limit Limit) Allows(level int) bool {
	return limit.Disabled || level <= limit.Value
}

// Budgets bounds a traversal.
type Budgets struct {
	MaxDepth       Limit
	MaxItems       Limit
	MaxEntries     Limit
	ExcludeDepth   Limit
	GitignoreDepth Limit
}

// SelectionOptions carries the already-resolved inputs of one selection run.
type SelectionOptions struct {
	Paths          []string
	Include        []string
	Exclude        []string
	FileExtensions []string
	Budgets        Budgets
	HiddenItems    bool
	NoFiles        bool
	UseGitignore   bool
}
