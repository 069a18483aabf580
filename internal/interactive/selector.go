// Package interactive lets a user trim a selection result through a terminal checklist.
package interactive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/gitree/internal/types"
)

const (
	headerText      = "Select entries to keep"
	footerText      = "↑/↓ move • space toggle • a toggle all • enter confirm • esc cancel"
	checkedMarker   = "[x]"
	uncheckedMarker = "[ ]"
	partialMarker   = "[~]"
	cursorMarker    = "> "
	indentUnit      = "  "
	directorySuffix = "/"
	defaultHeight   = 20
	reservedLines   = 4

	selectorFailedMessage = "interactive selection: %w"
)

// ErrAborted reports that the user left the checklist without confirming.
var ErrAborted = errors.New("interactive selection aborted")

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Confirm   key.Binding
	Abort     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Toggle:    key.NewBinding(key.WithKeys(" ")),
		ToggleAll: key.NewBinding(key.WithKeys("a")),
		Confirm:   key.NewBinding(key.WithKeys("enter")),
		Abort:     key.NewBinding(key.WithKeys("esc", "ctrl+c")),
	}
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
	directoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Faint(true)
)

// entry is one checklist row. subtreeEnd is the exclusive index past the last descendant row.
type entry struct {
	path        string
	name        string
	depth       int
	isDirectory bool
	isEmpty     bool
	subtreeEnd  int
}

type model struct {
	entries   []entry
	checked   []bool
	cursor    int
	offset    int
	height    int
	keys      keyMap
	confirmed bool
	aborted   bool
}

func flatten(root *types.TreeNode) []entry {
	var entries []entry
	var walk func(node *types.TreeNode, depth int)
	walk = func(node *types.TreeNode, depth int) {
		for _, child := range node.Children {
			index := len(entries)
			entries = append(entries, entry{
				path:        child.Path,
				name:        child.Name,
				depth:       depth,
				isDirectory: child.IsDirectory(),
				isEmpty:     child.IsDirectory() && len(child.Children) == 0,
			})
			if child.IsDirectory() {
				walk(child, depth+1)
			}
			entries[index].subtreeEnd = len(entries)
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return entries
}

func newModel(root *types.TreeNode) model {
	entries := flatten(root)
	checked := make([]bool, len(entries))
	for index := range checked {
		checked[index] = true
	}
	return model{entries: entries, checked: checked, height: defaultHeight, keys: defaultKeyMap()}
}

// leafIndexes lists the rows that carry their own state below index: files and empty directories.
func (selector model) leafIndexes(index int) []int {
	current := selector.entries[index]
	if !current.isDirectory || current.isEmpty {
		return []int{index}
	}
	var leaves []int
	for descendant := index + 1; descendant < current.subtreeEnd; descendant++ {
		candidate := selector.entries[descendant]
		if !candidate.isDirectory || candidate.isEmpty {
			leaves = append(leaves, descendant)
		}
	}
	return leaves
}

// state reports whether every leaf below index is checked and whether any is.
func (selector model) state(index int) (allChecked bool, anyChecked bool) {
	leaves := selector.leafIndexes(index)
	allChecked = len(leaves) > 0
	for _, leaf := range leaves {
		if selector.checked[leaf] {
			anyChecked = true
		} else {
			allChecked = false
		}
	}
	return allChecked, anyChecked
}

func (selector model) toggle(index int) model {
	allChecked, _ := selector.state(index)
	checked := append([]bool(nil), selector.checked...)
	for _, leaf := range selector.leafIndexes(index) {
		checked[leaf] = !allChecked
	}
	selector.checked = checked
	return selector
}

func (selector model) toggleAll() model {
	allChecked := true
	for index := range selector.entries {
		if (!selector.entries[index].isDirectory || selector.entries[index].isEmpty) && !selector.checked[index] {
			allChecked = false
			break
		}
	}
	checked := make([]bool, len(selector.checked))
	for index := range checked {
		checked[index] = !allChecked
	}
	selector.checked = checked
	return selector
}

// Selected returns the checked file and empty-directory paths.
func (selector model) Selected() map[string]bool {
	selected := make(map[string]bool)
	for index, current := range selector.entries {
		if (!current.isDirectory || current.isEmpty) && selector.checked[index] {
			selected[current.path] = true
		}
	}
	return selected
}

func (selector model) Init() tea.Cmd {
	return nil
}

func (selector model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.WindowSizeMsg:
		selector.height = typedMessage.Height
		return selector.clampOffset(), nil
	case tea.KeyMsg:
		return selector.handleKey(typedMessage)
	}
	return selector, nil
}

func (selector model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, selector.keys.Abort):
		selector.aborted = true
		return selector, tea.Quit
	case key.Matches(message, selector.keys.Confirm):
		selector.confirmed = true
		return selector, tea.Quit
	case len(selector.entries) == 0:
		return selector, nil
	case key.Matches(message, selector.keys.Up):
		if selector.cursor > 0 {
			selector.cursor--
		}
	case key.Matches(message, selector.keys.Down):
		if selector.cursor < len(selector.entries)-1 {
			selector.cursor++
		}
	case key.Matches(message, selector.keys.Toggle):
		selector = selector.toggle(selector.cursor)
	case key.Matches(message, selector.keys.ToggleAll):
		selector = selector.toggleAll()
	}
	return selector.clampOffset(), nil
}

func (selector model) viewportHeight() int {
	return max(1, selector.height-reservedLines)
}

func (selector model) clampOffset() model {
	viewport := selector.viewportHeight()
	if selector.cursor < selector.offset {
		selector.offset = selector.cursor
	}
	if selector.cursor >= selector.offset+viewport {
		selector.offset = selector.cursor - viewport + 1
	}
	return selector
}

func (selector model) View() string {
	if selector.confirmed || selector.aborted {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(headerStyle.Render(headerText))
	builder.WriteString("\n\n")
	end := min(len(selector.entries), selector.offset+selector.viewportHeight())
	for index := selector.offset; index < end; index++ {
		builder.WriteString(selector.renderRow(index))
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
	builder.WriteString(footerStyle.Render(footerText))
	return builder.String()
}

func (selector model) renderRow(index int) string {
	current := selector.entries[index]
	marker := uncheckedMarker
	switch allChecked, anyChecked := selector.state(index); {
	case allChecked:
		marker = checkedMarker
	case anyChecked:
		marker = partialMarker
	}
	name := current.name
	if current.isDirectory {
		name = directoryStyle.Render(name + directorySuffix)
	}
	row := fmt.Sprintf("%s %s%s", marker, strings.Repeat(indentUnit, current.depth), name)
	if index == selector.cursor {
		return cursorMarker + cursorStyle.Render(row)
	}
	return strings.Repeat(" ", len(cursorMarker)) + row
}

// Select runs the checklist on input and output and returns root reduced to the confirmed entries.
// Leaving with esc or ctrl+c returns ErrAborted.
func Select(root *types.TreeNode, input io.Reader, output io.Writer) (*types.TreeNode, error) {
	program := tea.NewProgram(newModel(root), tea.WithInput(input), tea.WithOutput(output), tea.WithAltScreen())
	finalModel, runErr := program.Run()
	if runErr != nil {
		return nil, fmt.Errorf(selectorFailedMessage, runErr)
	}
	selector, ok := finalModel.(model)
	if !ok || !selector.confirmed {
		return nil, ErrAborted
	}
	return Filter(root, selector.Selected()), nil
}
