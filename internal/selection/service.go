// Package selection decides which entries of a directory tree survive the configured filters and budgets.
package selection

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitree/internal/ignore"
	"github.com/temirov/gitree/internal/pathresolver"
	"github.com/temirov/gitree/internal/types"
)

// ErrNoPathsResolved is returned when none of the given paths or patterns resolved to a path.
var ErrNoPathsResolved = errors.New("no included paths were found matching given args")

const (
	selectionStartedMessage  = "Selection started"
	selectionFinishedMessage = "Selection finished"
	rootFieldName            = "root"
	entriesFieldName         = "entries"
)

// Result is the outcome of one selection run.
type Result struct {
	Root *types.TreeNode
	Tips []string
}

// Service resolves the requested paths and runs a traversal over their common ancestor.
type Service struct {
	resolver *pathresolver.Resolver
	logger   *zap.Logger
}

// NewService creates a selection Service.
func NewService(resolver *pathresolver.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, logger: logger}
}

// Select builds the result tree for options. ErrNoPathsResolved is the only error it returns.
func (service *Service) Select(options types.SelectionOptions) (Result, error) {
	startTime := time.Now()

	includeSpecifications := append(append([]string{}, options.Paths...), options.Include...)
	resolvedIncludes := service.resolver.Resolve(includeSpecifications)
	if len(resolvedIncludes) == 0 {
		return Result{}, ErrNoPathsResolved
	}
	rootDirectory := traversalRoot(resolvedIncludes[len(resolvedIncludes)-1])
	includePaths := resolvedIncludes[:len(resolvedIncludes)-1]

	var excludePaths []string
	if resolvedExcludes := service.resolver.Resolve(options.Exclude); len(resolvedExcludes) > 0 {
		excludePaths = resolvedExcludes[:len(resolvedExcludes)-1]
	}
	service.logger.Debug(selectionStartedMessage,
		zap.String(rootFieldName, rootDirectory),
		zap.Duration(elapsedFieldName, time.Since(startTime)))

	matcher := ignore.NewMatcher(service.logger)
	filterApplier := NewFilterApplier(options, includePaths, excludePaths, matcher)
	engine := NewTraversalEngine(options, filterApplier, matcher, service.resolver.GivenPaths(options.Paths), service.logger)
	rootNode := engine.Traverse(rootDirectory)

	service.logger.Debug(selectionFinishedMessage,
		zap.Int(entriesFieldName, rootNode.CountEntries()),
		zap.Duration(elapsedFieldName, time.Since(startTime)))
	return Result{Root: rootNode, Tips: engine.Tips()}, nil
}

// traversalRoot walks from a file ancestor up to its directory so a single named file still gets a
// directory to be listed from.
func traversalRoot(commonAncestor string) string {
	ancestorInfo, statError := os.Stat(commonAncestor)
	if statError == nil && !ancestorInfo.IsDir() {
		return filepath.Dir(commonAncestor)
	}
	return commonAncestor
}
