// Package utils contains general helper functions used across the gitree tool.
package utils

import (
	"path/filepath"
	"strings"
)

const (
	hiddenNamePrefix   = "."
	extensionMarker    = "."
	globMetaCharacters = "*?["
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// IsGlobPattern reports whether the string contains glob meta characters.
func IsGlobPattern(value string) bool {
	return strings.ContainsAny(value, globMetaCharacters)
}

// IsHiddenName reports whether a base name denotes a dotfile or dot-directory.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, hiddenNamePrefix)
}

// FileExtension returns the lower-cased extension of name without the leading dot.
// Names whose only dot is the leading one (".bashrc") have no extension.
func FileExtension(name string) string {
	dotIndex := strings.LastIndex(name, extensionMarker)
	if dotIndex <= 0 {
		return EmptyString
	}
	return strings.ToLower(name[dotIndex+1:])
}

// IsPathUnder reports whether candidate equals parent or lies below it.
// Both paths must be absolute and clean.
func IsPathUnder(candidate string, parent string) bool {
	if candidate == parent {
		return true
	}
	relativePath, relativeError := filepath.Rel(parent, candidate)
	if relativeError != nil {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}

// IsPathUnderAny reports whether candidate lies under at least one of parents.
func IsPathUnderAny(candidate string, parents []string) bool {
	for _, parent := range parents {
		if IsPathUnder(candidate, parent) {
			return true
		}
	}
	return false
}

// RelativePathOrSelf calculates the relative path from root to fullPath in forward-slash form.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}
