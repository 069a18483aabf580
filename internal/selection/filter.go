package selection

import (
	"strings"

	"github.com/temirov/gitree/internal/ignore"
	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

// Verdict is the outcome of evaluating one directory entry.
type Verdict int

const (
	// VerdictAccept keeps the entry.
	VerdictAccept Verdict = iota
	// VerdictReject drops the entry and continues with its siblings.
	VerdictReject
	// VerdictItemBudget stops the current directory because its item budget is spent.
	VerdictItemBudget
	// VerdictEntryBudget stops the traversal because the global entry budget is spent.
	VerdictEntryBudget
)

// Candidate describes a directory entry under evaluation.
type Candidate struct {
	Path        string
	Name        string
	IsDirectory bool
	// Depth is the depth of the directory containing the entry; the root directory has depth 0.
	Depth int
}

// Counters carries the acceptance counts that feed the budget rules.
type Counters struct {
	ItemsInDirectory int
	TotalEntries     int
}

// FilterApplier composes every inclusion criterion into one ordered decision.
type FilterApplier struct {
	options           types.SelectionOptions
	includePaths      []string
	includePathSet    map[string]struct{}
	excludePaths      []string
	allowedExtensions map[string]struct{}
	matcher           *ignore.Matcher
}

// NewFilterApplier builds a FilterApplier. includePaths and excludePaths are resolved paths without the
// appended common ancestor of the resolver output.
func NewFilterApplier(options types.SelectionOptions, includePaths []string, excludePaths []string, matcher *ignore.Matcher) *FilterApplier {
	includePathSet := make(map[string]struct{}, len(includePaths))
	for _, includePath := range includePaths {
		includePathSet[includePath] = struct{}{}
	}
	var allowedExtensions map[string]struct{}
	if len(options.FileExtensions) > 0 {
		allowedExtensions = make(map[string]struct{}, len(options.FileExtensions))
		for _, extension := range options.FileExtensions {
			allowedExtensions[normalizeExtension(extension)] = struct{}{}
		}
	}
	return &FilterApplier{
		options:           options,
		includePaths:      includePaths,
		includePathSet:    includePathSet,
		excludePaths:      excludePaths,
		allowedExtensions: allowedExtensions,
		matcher:           matcher,
	}
}

// Evaluate applies the rules in order and returns the first decisive verdict:
// files under no-files, entries outside explicitly given directories, the item budget, the entry budget,
// hidden entries, exclude paths, ignore rules and finally the extension allow-list.
func (applier *FilterApplier) Evaluate(candidate Candidate, counters Counters, directoryGiven bool) Verdict {
	if !applier.passesScope(candidate, directoryGiven) {
		return VerdictReject
	}
	if applier.options.Budgets.MaxItems.Reached(counters.ItemsInDirectory) {
		return VerdictItemBudget
	}
	if applier.options.Budgets.MaxEntries.Reached(counters.TotalEntries) {
		return VerdictEntryBudget
	}
	if utils.IsHiddenName(candidate.Name) && !applier.options.HiddenItems && !applier.isIncludePath(candidate.Path) {
		return VerdictReject
	}
	if applier.options.Budgets.ExcludeDepth.Allows(candidate.Depth) && utils.IsPathUnderAny(candidate.Path, applier.excludePaths) {
		return VerdictReject
	}
	if applier.options.UseGitignore && applier.matcher != nil &&
		applier.options.Budgets.GitignoreDepth.Allows(candidate.Depth) &&
		applier.matcher.Excluded(candidate.Path, candidate.IsDirectory) {
		return VerdictReject
	}
	if !candidate.IsDirectory && !applier.AllowsExtension(candidate.Name) {
		return VerdictReject
	}
	return VerdictAccept
}

// passesScope covers the two rules evaluated ahead of the budgets.
func (applier *FilterApplier) passesScope(candidate Candidate, directoryGiven bool) bool {
	if applier.options.NoFiles && !candidate.IsDirectory {
		return false
	}
	if directoryGiven {
		return true
	}
	if !candidate.IsDirectory {
		return applier.isIncludePath(candidate.Path)
	}
	for _, includePath := range applier.includePaths {
		if utils.IsPathUnder(includePath, candidate.Path) {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether a file name passes the extension allow-list. An empty list allows all.
func (applier *FilterApplier) AllowsExtension(name string) bool {
	if applier.allowedExtensions == nil {
		return true
	}
	_, allowed := applier.allowedExtensions[utils.FileExtension(name)]
	return allowed
}

func (applier *FilterApplier) isIncludePath(candidatePath string) bool {
	_, included := applier.includePathSet[candidatePath]
	return included
}

func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(extension), "."))
}
