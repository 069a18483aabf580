// Package ignore evaluates .gitignore-style rules collected while a directory tree is walked.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
)

const (
	commentPrefix           = "#"
	negationPrefix          = "!"
	anchorPrefix            = "/"
	directoryOnlySuffix     = "/"
	escapedCommentPrefix    = `\#`
	escapedNegationPrefix   = `\!`
	pathComponentSeparator  = "/"
	anyDepthPrefix          = "**/"
	ignoreFileSkippedFormat = "ignore file skipped"
)

// Pattern is a single parsed ignore rule.
type Pattern struct {
	Raw           string
	Anchored      bool
	DirectoryOnly bool
	Negated       bool
	// Scope is the absolute directory whose ignore file declared the rule.
	Scope         string

	compiled gitignore.Pattern
}

// ParsePattern parses one ignore-file line declared in scopeDirectory. The boolean result is false for
// blank lines and comments.
func ParsePattern(line string, scopeDirectory string) (Pattern, bool) {
	trimmedLine := strings.TrimRight(line, "\r")
	if !strings.HasSuffix(trimmedLine, `\ `) {
		trimmedLine = strings.TrimRight(trimmedLine, " \t")
	}
	if strings.TrimSpace(trimmedLine) == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
		return Pattern{}, false
	}

	body := trimmedLine
	escape := ""
	parsedPattern := Pattern{Raw: trimmedLine, Scope: scopeDirectory}
	if strings.HasPrefix(body, negationPrefix) {
		parsedPattern.Negated = true
		body = body[len(negationPrefix):]
	} else if strings.HasPrefix(body, escapedNegationPrefix) || strings.HasPrefix(body, escapedCommentPrefix) {
		escape = body[:1]
		body = body[1:]
	}
	if strings.HasSuffix(body, directoryOnlySuffix) {
		parsedPattern.DirectoryOnly = true
	}
	parsedPattern.Anchored = strings.HasPrefix(body, anchorPrefix)
	if body == "" || body == anchorPrefix {
		return Pattern{}, false
	}

	parsedPattern.compiled = gitignore.ParsePattern(compiledLine(parsedPattern, escape+body), splitPath(scopeDirectory))
	return parsedPattern, true
}

// compiledLine rewrites a rule for the gitignore compiler. Unanchored rules match at any depth below the
// declaring directory, including rules with an inner slash that the compiler would otherwise anchor.
func compiledLine(parsedPattern Pattern, body string) string {
	if !parsedPattern.Anchored && strings.Contains(strings.TrimSuffix(body, directoryOnlySuffix), pathComponentSeparator) &&
		!strings.HasPrefix(body, anyDepthPrefix) {
		body = anyDepthPrefix + body
	}
	if parsedPattern.Negated {
		return negationPrefix + body
	}
	return body
}

// Matcher accumulates ignore rules as traversal descends. Rules are kept in declaration order and the last
// matching rule decides the verdict. A Matcher belongs to a single traversal and is not safe for
// concurrent use.
type Matcher struct {
	logger   *zap.Logger
	patterns []Pattern
	loaded   map[string]struct{}
}

// NewMatcher creates an empty Matcher.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger, loaded: make(map[string]struct{})}
}

// AddIgnoreFile parses the ignore file at ignoreFilePath and scopes its rules to declaringDirectory.
// Missing or unreadable files contribute no rules. Adding the same file twice has no effect.
func (matcher *Matcher) AddIgnoreFile(ignoreFilePath string, declaringDirectory string) {
	cleanFilePath := filepath.Clean(ignoreFilePath)
	if _, alreadyLoaded := matcher.loaded[cleanFilePath]; alreadyLoaded {
		return
	}
	matcher.loaded[cleanFilePath] = struct{}{}

	fileHandle, openError := os.Open(cleanFilePath)
	if openError != nil {
		matcher.logger.Debug(ignoreFileSkippedFormat, zap.String("path", cleanFilePath), zap.Error(openError))
		return
	}
	defer fileHandle.Close()

	scopeDirectory := filepath.Clean(declaringDirectory)
	var filePatterns []Pattern
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		if parsedPattern, isRule := ParsePattern(scanner.Text(), scopeDirectory); isRule {
			filePatterns = append(filePatterns, parsedPattern)
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		matcher.logger.Debug(ignoreFileSkippedFormat, zap.String("path", cleanFilePath), zap.Error(scanError))
		return
	}
	matcher.patterns = append(matcher.patterns, filePatterns...)
}

// Excluded reports whether candidatePath is ignored. Only rules declared in an ancestor of the candidate
// apply. No matching rule means the candidate is kept.
func (matcher *Matcher) Excluded(candidatePath string, isDirectory bool) bool {
	if len(matcher.patterns) == 0 {
		return false
	}
	candidateComponents := splitPath(filepath.Clean(candidatePath))
	for patternIndex := len(matcher.patterns) - 1; patternIndex >= 0; patternIndex-- {
		switch matcher.patterns[patternIndex].compiled.Match(candidateComponents, isDirectory) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

func splitPath(absolutePath string) []string {
	slashPath := strings.Trim(filepath.ToSlash(absolutePath), pathComponentSeparator)
	if slashPath == "" {
		return nil
	}
	return strings.Split(slashPath, pathComponentSeparator)
}
