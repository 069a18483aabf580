// Package output renders a selection result as a text tree, Markdown or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/gitree/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	fileEmoji           = "📄 "
	directoryEmoji      = "📁 "
	emptyDirectoryEmoji = "📂 "

	remainingItemsFormat = "... and %d more items"
	truncatedEntriesLine = "... output truncated (max entries reached)"
	markdownFence        = "```"
	jsonIndent           = "  "

	unsupportedFormatMessage = "unsupported output format %q"
)

// Options controls how a tree is drawn.
type Options struct {
	Format     string
	Emoji      bool
	FilesFirst bool
	Color      bool
}

// Renderer draws result trees.
type Renderer struct {
	options        Options
	directoryStyle *color.Color
}

// NewRenderer creates a Renderer for options. An empty format means the text tree.
func NewRenderer(options Options) *Renderer {
	if options.Format == "" {
		options.Format = types.FormatTree
	}
	directoryStyle := color.New(color.FgBlue, color.Bold)
	if options.Color {
		directoryStyle.EnableColor()
	} else {
		directoryStyle.DisableColor()
	}
	return &Renderer{options: options, directoryStyle: directoryStyle}
}

// ColorSupported reports whether colour output suits file: colour was not switched off and file is a terminal.
func ColorSupported(noColor bool, file *os.File) bool {
	if noColor || file == nil {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Render writes root in the configured format.
func (renderer *Renderer) Render(writer io.Writer, root *types.TreeNode) error {
	lines, renderErr := renderer.Lines(root)
	if renderErr != nil {
		return renderErr
	}
	for _, line := range lines {
		if _, writeErr := fmt.Fprintln(writer, line); writeErr != nil {
			return writeErr
		}
	}
	return nil
}

// Lines returns the rendered structure line by line.
func (renderer *Renderer) Lines(root *types.TreeNode) ([]string, error) {
	switch renderer.options.Format {
	case types.FormatTree, types.FormatText:
		return renderer.TreeLines(root), nil
	case types.FormatMarkdown:
		treeLines := renderer.TreeLines(root)
		lines := make([]string, 0, len(treeLines)+2)
		lines = append(lines, markdownFence)
		lines = append(lines, treeLines...)
		return append(lines, markdownFence), nil
	case types.FormatJSON:
		encoded, encodeErr := RenderJSON(root)
		if encodeErr != nil {
			return nil, encodeErr
		}
		return strings.Split(string(encoded), "\n"), nil
	default:
		return nil, fmt.Errorf(unsupportedFormatMessage, renderer.options.Format)
	}
}

// TreeLines draws root with box connectors. Directories cut short by the item budget end with a
// remaining-items line and a truncated root ends with a truncation notice.
func (renderer *Renderer) TreeLines(root *types.TreeNode) []string {
	if root == nil {
		return nil
	}
	lines := renderer.appendChildLines([]string{renderer.label(root)}, root, "")
	if root.TruncatedEntries {
		lines = append(lines, truncatedEntriesLine)
	}
	return lines
}

func (renderer *Renderer) appendChildLines(lines []string, node *types.TreeNode, prefix string) []string {
	children := renderer.orderedChildren(node)
	itemCount := len(children)
	if node.RemainingItems > 0 {
		itemCount++
	}
	for childIndex, child := range children {
		connector, childPrefix := treeBranchConnector, prefix+treeBranchPadding
		if childIndex == itemCount-1 {
			connector, childPrefix = treeLastConnector, prefix+treeLastPadding
		}
		lines = append(lines, prefix+connector+renderer.label(child))
		if child.IsDirectory() {
			lines = renderer.appendChildLines(lines, child, childPrefix)
		}
	}
	if node.RemainingItems > 0 {
		lines = append(lines, prefix+treeLastConnector+fmt.Sprintf(remainingItemsFormat, node.RemainingItems))
	}
	return lines
}

func (renderer *Renderer) label(node *types.TreeNode) string {
	if !node.IsDirectory() {
		if renderer.options.Emoji {
			return fileEmoji + node.Name
		}
		return node.Name
	}
	name := renderer.directoryStyle.Sprint(node.Name)
	if !renderer.options.Emoji {
		return name
	}
	if len(node.Children) == 0 {
		return emptyDirectoryEmoji + name
	}
	return directoryEmoji + name
}

// orderedChildren keeps the selection order (files first) when FilesFirst is set and otherwise interleaves
// files and directories by case-folded name.
func (renderer *Renderer) orderedChildren(node *types.TreeNode) []*types.TreeNode {
	if renderer.options.FilesFirst {
		return node.Children
	}
	ordered := append([]*types.TreeNode(nil), node.Children...)
	sort.SliceStable(ordered, func(leftIndex, rightIndex int) bool {
		return strings.ToLower(ordered[leftIndex].Name) < strings.ToLower(ordered[rightIndex].Name)
	})
	return ordered
}

// RenderJSON encodes root with its truncation metadata.
func RenderJSON(root *types.TreeNode) ([]byte, error) {
	return json.MarshalIndent(root, "", jsonIndent)
}
