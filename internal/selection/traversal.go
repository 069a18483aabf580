package selection

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitree/internal/ignore"
	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	// GitignoreTip is reported when ignore files exist but ignore rules are not applied.
	GitignoreTip = "gitignore files were found, use '-g' to apply .gitignore rules"

	processingDirectoryMessage = "Processing directory"
	readDirectoryFailedMessage = "Skipping unreadable directory"
	pathFieldName              = "path"
	depthFieldName             = "depth"
	elapsedFieldName           = "elapsed"
)

// workItem is a directory waiting to be expanded together with the node that receives its children.
type workItem struct {
	directoryPath string
	depth         int
	node          *types.TreeNode
}

// directoryEntry is a listed child with its resolved kind.
type directoryEntry struct {
	path        string
	name        string
	isDirectory bool
}

// TraversalEngine walks a root directory with an explicit work stack and builds the result tree.
// An engine serves a single traversal.
type TraversalEngine struct {
	options       types.SelectionOptions
	filterApplier *FilterApplier
	matcher       *ignore.Matcher
	givenPaths    []string
	logger        *zap.Logger
	startTime     time.Time
	gitignoreTip  bool
	expanded      map[string]struct{}
	totalEntries  int
	entriesCapped bool
	listEntries   func(directoryPath string) ([]directoryEntry, error)
}

// NewTraversalEngine wires an engine. givenPaths are the resolved literal paths the user named; directories at
// or below them are explicitly given.
func NewTraversalEngine(options types.SelectionOptions, filterApplier *FilterApplier, matcher *ignore.Matcher, givenPaths []string, logger *zap.Logger) *TraversalEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraversalEngine{
		options:       options,
		filterApplier: filterApplier,
		matcher:       matcher,
		givenPaths:    givenPaths,
		logger:        logger,
		expanded:      make(map[string]struct{}),
		listEntries:   listDirectory,
	}
}

// Traverse builds the tree rooted at rootDirectory. Read failures of individual directories leave those
// directories empty and are never returned.
func (engine *TraversalEngine) Traverse(rootDirectory string) *types.TreeNode {
	engine.startTime = time.Now()
	rootNode := &types.TreeNode{
		Path: rootDirectory,
		Name: filepath.Base(rootDirectory),
		Type: types.NodeTypeDirectory,
	}

	pending := []workItem{{directoryPath: rootDirectory, depth: 0, node: rootNode}}
	for len(pending) > 0 && !engine.entriesCapped {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		pending = append(pending, engine.expand(current)...)
	}

	rootNode.TruncatedEntries = engine.entriesCapped
	return rootNode
}

// Tips returns the informational messages gathered during traversal.
func (engine *TraversalEngine) Tips() []string {
	if engine.gitignoreTip {
		return []string{GitignoreTip}
	}
	return nil
}

// expand lists one directory, attaches accepted children to its node and returns the subdirectories to
// visit next in sorted order.
func (engine *TraversalEngine) expand(current workItem) []workItem {
	expansionKey := current.directoryPath
	if realPath, evaluateError := filepath.EvalSymlinks(current.directoryPath); evaluateError == nil {
		expansionKey = realPath
	}
	if _, alreadyExpanded := engine.expanded[expansionKey]; alreadyExpanded {
		return nil
	}
	engine.expanded[expansionKey] = struct{}{}

	engine.logger.Debug(processingDirectoryMessage,
		zap.String(pathFieldName, current.directoryPath),
		zap.Int(depthFieldName, current.depth),
		zap.Duration(elapsedFieldName, time.Since(engine.startTime)))

	if !engine.options.Budgets.MaxDepth.Allows(current.depth + 1) {
		return nil
	}

	entries, listError := engine.listEntries(current.directoryPath)
	if listError != nil {
		engine.logger.Debug(readDirectoryFailedMessage, zap.String(pathFieldName, current.directoryPath), zap.Error(listError))
		return nil
	}
	entries = engine.preFilterExtensions(entries)
	engine.registerIgnoreFile(current)

	directoryGiven := utils.IsPathUnderAny(current.directoryPath, engine.givenPaths)
	itemsInDirectory := 0
	var nextItems []workItem
	for entryIndex, entry := range entries {
		verdict := engine.filterApplier.Evaluate(
			Candidate{Path: entry.path, Name: entry.name, IsDirectory: entry.isDirectory, Depth: current.depth},
			Counters{ItemsInDirectory: itemsInDirectory, TotalEntries: engine.totalEntries},
			directoryGiven,
		)
		switch verdict {
		case VerdictReject:
			continue
		case VerdictItemBudget:
			current.node.RemainingItems = engine.countInScope(entries[entryIndex:], directoryGiven)
			return nextItems
		case VerdictEntryBudget:
			engine.entriesCapped = true
			return nextItems
		}

		itemsInDirectory++
		engine.totalEntries++
		childNode := &types.TreeNode{Path: entry.path, Name: entry.name, Type: types.NodeTypeFile}
		if entry.isDirectory {
			childNode.Type = types.NodeTypeDirectory
			nextItems = append(nextItems, workItem{directoryPath: entry.path, depth: current.depth + 1, node: childNode})
		}
		current.node.Children = append(current.node.Children, childNode)
	}
	return nextItems
}

// registerIgnoreFile loads the directory's ignore file when it lies within the ignore scan depth, or records
// the tip when ignore rules are not in use.
func (engine *TraversalEngine) registerIgnoreFile(current workItem) {
	if !engine.options.Budgets.GitignoreDepth.Allows(current.depth) {
		return
	}
	ignoreFilePath := filepath.Join(current.directoryPath, utils.GitIgnoreFileName)
	ignoreFileInfo, statError := os.Stat(ignoreFilePath)
	if statError != nil || ignoreFileInfo.IsDir() {
		return
	}
	if !engine.options.UseGitignore {
		engine.gitignoreTip = true
		return
	}
	engine.matcher.AddIgnoreFile(ignoreFilePath, current.directoryPath)
}

// preFilterExtensions drops files outside the extension allow-list before any budget is counted.
func (engine *TraversalEngine) preFilterExtensions(entries []directoryEntry) []directoryEntry {
	if len(engine.options.FileExtensions) == 0 {
		return entries
	}
	filteredEntries := entries[:0]
	for _, entry := range entries {
		if entry.isDirectory || engine.filterApplier.AllowsExtension(entry.name) {
			filteredEntries = append(filteredEntries, entry)
		}
	}
	return filteredEntries
}

// countInScope counts the entries that pass the rules evaluated ahead of the item budget.
func (engine *TraversalEngine) countInScope(entries []directoryEntry, directoryGiven bool) int {
	remaining := 0
	for _, entry := range entries {
		if engine.filterApplier.passesScope(Candidate{Path: entry.path, Name: entry.name, IsDirectory: entry.isDirectory}, directoryGiven) {
			remaining++
		}
	}
	return remaining
}

// listDirectory reads a directory and sorts it by kind and case-folded name, files first.
// Symbolic links are classified by their target.
func listDirectory(directoryPath string) ([]directoryEntry, error) {
	rawEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return nil, readError
	}
	entries := make([]directoryEntry, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		entryPath := filepath.Join(directoryPath, rawEntry.Name())
		isDirectory := rawEntry.IsDir()
		if rawEntry.Type()&os.ModeSymlink != 0 {
			if targetInfo, statError := os.Stat(entryPath); statError == nil {
				isDirectory = targetInfo.IsDir()
			}
		}
		entries = append(entries, directoryEntry{path: entryPath, name: rawEntry.Name(), isDirectory: isDirectory})
	}
	sort.SliceStable(entries, func(leftIndex, rightIndex int) bool {
		left, right := entries[leftIndex], entries[rightIndex]
		if left.isDirectory != right.isDirectory {
			return !left.isDirectory
		}
		return strings.ToLower(left.name) < strings.ToLower(right.name)
	})
	return entries, nil
}
