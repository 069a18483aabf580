package interactive

import "github.com/temirov/gitree/internal/types"

// Filter returns a copy of root holding only selected entries. A file survives when its path is selected;
// a directory survives when a descendant survives, and a directory that had no children survives when it is
// selected itself. RemainingItems and TruncatedEntries carry over unchanged. root is never modified.
func Filter(root *types.TreeNode, selected map[string]bool) *types.TreeNode {
	if root == nil {
		return nil
	}
	filtered := *root
	filtered.Children = filterChildren(root.Children, selected)
	return &filtered
}

func filterChildren(children []*types.TreeNode, selected map[string]bool) []*types.TreeNode {
	var kept []*types.TreeNode
	for _, child := range children {
		if !child.IsDirectory() {
			if selected[child.Path] {
				keptFile := *child
				kept = append(kept, &keptFile)
			}
			continue
		}
		keptDirectory := *child
		keptDirectory.Children = filterChildren(child.Children, selected)
		if len(keptDirectory.Children) > 0 || (len(child.Children) == 0 && selected[child.Path]) {
			kept = append(kept, &keptDirectory)
		}
	}
	return kept
}
