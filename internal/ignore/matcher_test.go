package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitree/internal/ignore"
)

const ignoreFileName = ".gitignore"

func writeIgnoreFile(testingHandle *testing.T, directory string, content string) string {
	testingHandle.Helper()
	ignoreFilePath := filepath.Join(directory, ignoreFileName)
	if writeError := os.WriteFile(ignoreFilePath, []byte(content), 0o600); writeError != nil {
		testingHandle.Fatalf("write ignore file: %v", writeError)
	}
	return ignoreFilePath
}

func TestMatcherExcluded(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	if mkdirError := os.MkdirAll(nestedDirectory, 0o755); mkdirError != nil {
		testingHandle.Fatalf("create nested directory: %v", mkdirError)
	}
	matcher := ignore.NewMatcher(nil)
	matcher.AddIgnoreFile(writeIgnoreFile(testingHandle, rootDirectory, "# comment\n\n*.log\n!keep.log\nbuild/\n/anchored.txt\ngen/out.txt\n"), rootDirectory)
	matcher.AddIgnoreFile(writeIgnoreFile(testingHandle, nestedDirectory, "*.tmp\n!important.log\n"), nestedDirectory)

	testCases := []struct {
		name        string
		candidate   string
		isDirectory bool
		expected    bool
	}{
		{name: "log file excluded", candidate: filepath.Join(rootDirectory, "other.log"), expected: true},
		{name: "negated file kept", candidate: filepath.Join(rootDirectory, "keep.log"), expected: false},
		{name: "log file at depth excluded", candidate: filepath.Join(nestedDirectory, "deep.log"), expected: true},
		{name: "nested negation re-includes", candidate: filepath.Join(nestedDirectory, "important.log"), expected: false},
		{name: "directory only pattern matches directory", candidate: filepath.Join(rootDirectory, "build"), isDirectory: true, expected: true},
		{name: "directory only pattern skips file", candidate: filepath.Join(rootDirectory, "build"), expected: false},
		{name: "directory only pattern covers contents", candidate: filepath.Join(rootDirectory, "build", "output.bin"), expected: true},
		{name: "anchored pattern at declaring directory", candidate: filepath.Join(rootDirectory, "anchored.txt"), expected: true},
		{name: "anchored pattern not below declaring directory", candidate: filepath.Join(nestedDirectory, "anchored.txt"), expected: false},
		{name: "nested rule applies below its directory", candidate: filepath.Join(nestedDirectory, "scratch.tmp"), expected: true},
		{name: "nested rule does not apply above its directory", candidate: filepath.Join(rootDirectory, "scratch.tmp"), expected: false},
		{name: "unmatched file kept", candidate: filepath.Join(rootDirectory, "main.go"), expected: false},
		{name: "inner slash pattern at declaring directory", candidate: filepath.Join(rootDirectory, "gen", "out.txt"), expected: true},
		{name: "inner slash pattern below declaring directory", candidate: filepath.Join(nestedDirectory, "gen", "out.txt"), expected: true},
		{name: "inner slash pattern needs every component", candidate: filepath.Join(nestedDirectory, "gen", "other.txt"), expected: false},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			if actual := matcher.Excluded(testCase.candidate, testCase.isDirectory); actual != testCase.expected {
				testingHandle.Fatalf("Excluded(%s) = %t, expected %t", testCase.candidate, actual, testCase.expected)
			}
		})
	}
}

func TestMatcherLastMatchWins(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	matcher := ignore.NewMatcher(nil)
	matcher.AddIgnoreFile(writeIgnoreFile(testingHandle, rootDirectory, "!keep.log\n*.log\n"), rootDirectory)

	if !matcher.Excluded(filepath.Join(rootDirectory, "keep.log"), false) {
		testingHandle.Fatalf("expected later exclusion to override earlier negation")
	}
}

func TestMatcherToleratesMissingFile(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	matcher := ignore.NewMatcher(zap.New(observedCore))

	matcher.AddIgnoreFile(filepath.Join(rootDirectory, ignoreFileName), rootDirectory)

	if matcher.Excluded(filepath.Join(rootDirectory, "anything"), false) {
		testingHandle.Fatalf("expected nothing to be excluded")
	}
	if observedLogs.Len() != 1 {
		testingHandle.Fatalf("expected one debug entry, got %d", observedLogs.Len())
	}
}

func TestMatcherIgnoresDuplicateRegistration(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	ignoreFilePath := writeIgnoreFile(testingHandle, rootDirectory, "*.log\n")
	matcher := ignore.NewMatcher(nil)
	matcher.AddIgnoreFile(ignoreFilePath, rootDirectory)
	writeIgnoreFile(testingHandle, rootDirectory, "!*.log\n")
	matcher.AddIgnoreFile(ignoreFilePath, rootDirectory)

	if !matcher.Excluded(filepath.Join(rootDirectory, "app.log"), false) {
		testingHandle.Fatalf("expected a repeated registration to be ignored")
	}
}

func TestMatcherNegatesInnerSlashPatternAtDepth(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	matcher := ignore.NewMatcher(nil)
	matcher.AddIgnoreFile(writeIgnoreFile(testingHandle, rootDirectory, "*.txt\n!gen/keep.txt\n"), rootDirectory)

	if matcher.Excluded(filepath.Join(rootDirectory, "pkg", "gen", "keep.txt"), false) {
		testingHandle.Fatalf("expected negated inner slash pattern to re-include at depth")
	}
	if !matcher.Excluded(filepath.Join(rootDirectory, "pkg", "gen", "drop.txt"), false) {
		testingHandle.Fatalf("expected other text files to stay excluded")
	}
}

func TestParsePattern(testingHandle *testing.T) {
	scopeDirectory := filepath.Join(string(filepath.Separator), "repository")
	testCases := []struct {
		name           string
		line           string
		expectedRule   bool
		expectedResult ignore.Pattern
	}{
		{name: "blank", line: "   ", expectedRule: false},
		{name: "comment", line: "# note", expectedRule: false},
		{name: "plain", line: "*.log", expectedRule: true, expectedResult: ignore.Pattern{Raw: "*.log", Scope: scopeDirectory}},
		{name: "negated", line: "!keep.log", expectedRule: true, expectedResult: ignore.Pattern{Raw: "!keep.log", Negated: true, Scope: scopeDirectory}},
		{name: "directory only", line: "build/", expectedRule: true, expectedResult: ignore.Pattern{Raw: "build/", DirectoryOnly: true, Scope: scopeDirectory}},
		{name: "anchored", line: "/dist", expectedRule: true, expectedResult: ignore.Pattern{Raw: "/dist", Anchored: true, Scope: scopeDirectory}},
		{name: "trailing spaces trimmed", line: "tmp  ", expectedRule: true, expectedResult: ignore.Pattern{Raw: "tmp", Scope: scopeDirectory}},
		{name: "inner slash stays unanchored", line: "gen/out.txt", expectedRule: true, expectedResult: ignore.Pattern{Raw: "gen/out.txt", Scope: scopeDirectory}},
		{name: "escaped comment", line: `\#hash`, expectedRule: true, expectedResult: ignore.Pattern{Raw: `\#hash`, Scope: scopeDirectory}},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			parsedPattern, isRule := ignore.ParsePattern(testCase.line, scopeDirectory)
			if isRule != testCase.expectedRule {
				testingHandle.Fatalf("expected rule=%t, got %t", testCase.expectedRule, isRule)
			}
			if !isRule {
				return
			}
			if parsedPattern.Raw != testCase.expectedResult.Raw ||
				parsedPattern.Anchored != testCase.expectedResult.Anchored ||
				parsedPattern.DirectoryOnly != testCase.expectedResult.DirectoryOnly ||
				parsedPattern.Negated != testCase.expectedResult.Negated ||
				parsedPattern.Scope != testCase.expectedResult.Scope {
				testingHandle.Fatalf("unexpected pattern %+v", parsedPattern)
			}
		})
	}
}
