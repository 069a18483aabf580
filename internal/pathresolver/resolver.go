// Package pathresolver turns user supplied paths and glob patterns into absolute, symlink-resolved paths.
package pathresolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/temirov/gitree/internal/utils"
)

const (
	globWithoutMatchesMessage = "No matches found for glob pattern"
	globFailedMessage         = "Invalid glob pattern"
	patternFieldName          = "pattern"
)

// Resolver resolves path specifications relative to a fixed working directory.
type Resolver struct {
	workingDirectory string
	logger           *zap.Logger
}

// NewResolver creates a Resolver. An empty workingDirectory means the process working directory.
func NewResolver(workingDirectory string, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workingDirectory == utils.EmptyString {
		currentDirectory, currentDirectoryError := os.Getwd()
		if currentDirectoryError != nil {
			return nil, currentDirectoryError
		}
		workingDirectory = currentDirectory
	}
	absoluteWorkingDirectory, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		return nil, absoluteError
	}
	return &Resolver{workingDirectory: absoluteWorkingDirectory, logger: logger}, nil
}

// Resolve expands specifications into resolved paths in input order and appends their common ancestor as
// the final element. Globs expand recursively, include hidden entries and are sorted; a glob without matches
// is logged and contributes nothing. Literal paths need not exist. The result is empty when nothing resolved.
func (resolver *Resolver) Resolve(specifications []string) []string {
	var resolvedPaths []string
	for _, specification := range specifications {
		if !utils.IsGlobPattern(specification) {
			resolvedPaths = append(resolvedPaths, resolver.resolveLiteral(specification))
			continue
		}
		globPattern := specification
		if !filepath.IsAbs(globPattern) {
			globPattern = filepath.Join(resolver.workingDirectory, globPattern)
		}
		matchedPaths, globError := doublestar.FilepathGlob(globPattern)
		if globError != nil {
			resolver.logger.Warn(globFailedMessage, zap.String(patternFieldName, specification), zap.Error(globError))
			continue
		}
		if len(matchedPaths) == 0 {
			resolver.logger.Warn(globWithoutMatchesMessage, zap.String(patternFieldName, specification))
			continue
		}
		sort.Strings(matchedPaths)
		for _, matchedPath := range matchedPaths {
			resolvedPaths = append(resolvedPaths, resolveNonStrict(matchedPath))
		}
	}
	if len(resolvedPaths) == 0 {
		return nil
	}
	return append(resolvedPaths, CommonAncestor(resolvedPaths))
}

// GivenPaths returns the literal (non-glob) specifications as resolved paths. Directories at or below one
// of them were named by the user rather than reached incidentally.
func (resolver *Resolver) GivenPaths(specifications []string) []string {
	var givenPaths []string
	for _, specification := range specifications {
		if utils.IsGlobPattern(specification) {
			continue
		}
		givenPaths = append(givenPaths, resolver.resolveLiteral(specification))
	}
	return givenPaths
}

func (resolver *Resolver) resolveLiteral(specification string) string {
	literalPath := specification
	if !filepath.IsAbs(literalPath) {
		literalPath = filepath.Join(resolver.workingDirectory, literalPath)
	}
	return resolveNonStrict(literalPath)
}

// resolveNonStrict resolves symlinks of the longest existing prefix of absolutePath and appends the
// remaining components unchanged.
func resolveNonStrict(absolutePath string) string {
	cleanPath := filepath.Clean(absolutePath)
	existingPrefix := cleanPath
	var missingComponents []string
	for {
		if evaluatedPath, evaluateError := filepath.EvalSymlinks(existingPrefix); evaluateError == nil {
			return filepath.Join(append([]string{evaluatedPath}, missingComponents...)...)
		}
		parentDirectory := filepath.Dir(existingPrefix)
		if parentDirectory == existingPrefix {
			return cleanPath
		}
		missingComponents = append([]string{filepath.Base(existingPrefix)}, missingComponents...)
		existingPrefix = parentDirectory
	}
}

// CommonAncestor returns the deepest directory shared by all paths. A single path is its own ancestor.
// paths must not be empty.
func CommonAncestor(paths []string) string {
	commonComponents := splitComponents(paths[0])
	for _, candidatePath := range paths[1:] {
		candidateComponents := splitComponents(candidatePath)
		sharedLength := 0
		for sharedLength < len(commonComponents) && sharedLength < len(candidateComponents) &&
			commonComponents[sharedLength] == candidateComponents[sharedLength] {
			sharedLength++
		}
		commonComponents = commonComponents[:sharedLength]
	}
	volumeName := filepath.VolumeName(paths[0])
	return volumeName + string(filepath.Separator) + filepath.Join(commonComponents...)
}

func splitComponents(absolutePath string) []string {
	cleanPath := filepath.Clean(absolutePath)
	withoutVolume := strings.TrimPrefix(cleanPath, filepath.VolumeName(cleanPath))
	trimmedPath := strings.Trim(withoutVolume, string(filepath.Separator))
	if trimmedPath == utils.EmptyString {
		return nil
	}
	return strings.Split(trimmedPath, string(filepath.Separator))
}
