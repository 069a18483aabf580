package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/gitree/internal/utils"
)

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate patterns.
func TestDeduplicatePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "keeps unique",
			patterns: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
	}
	for index, testCase := range testCases {
		actual := utils.DeduplicatePatterns(testCase.patterns)
		if len(actual) != len(testCase.expected) {
			testingInstance.Errorf("case %d (%s): expected length %d, got %d", index, testCase.testName, len(testCase.expected), len(actual))
			continue
		}
		for position, value := range actual {
			if value != testCase.expected[position] {
				testingInstance.Errorf("case %d (%s): expected %s at position %d, got %s", index, testCase.testName, testCase.expected[position], position, value)
			}
		}
	}
}

// TestFileExtension verifies extension extraction for regular names and dotfiles.
func TestFileExtension(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		name     string
		expected string
	}{
		{testName: "simple", name: "main.go", expected: "go"},
		{testName: "upper case", name: "README.MD", expected: "md"},
		{testName: "double extension", name: "archive.tar.gz", expected: "gz"},
		{testName: "dotfile", name: ".bashrc", expected: ""},
		{testName: "no dot", name: "Makefile", expected: ""},
		{testName: "trailing dot", name: "name.", expected: ""},
	}
	for _, testCase := range testCases {
		if actual := utils.FileExtension(testCase.name); actual != testCase.expected {
			testingInstance.Errorf("%s: expected %q, got %q", testCase.testName, testCase.expected, actual)
		}
	}
}

// TestIsGlobPattern verifies glob meta character detection.
func TestIsGlobPattern(testingInstance *testing.T) {
	testCases := map[string]bool{
		"src":        false,
		"*.go":       true,
		"file?.txt":  true,
		"[ab].txt":   true,
		"dir/nested": false,
	}
	for value, expected := range testCases {
		if actual := utils.IsGlobPattern(value); actual != expected {
			testingInstance.Errorf("IsGlobPattern(%q): expected %t, got %t", value, expected, actual)
		}
	}
}

// TestIsHiddenName verifies dot-prefixed names are hidden.
func TestIsHiddenName(testingInstance *testing.T) {
	if !utils.IsHiddenName(".env") {
		testingInstance.Errorf("expected .env to be hidden")
	}
	if utils.IsHiddenName("env") {
		testingInstance.Errorf("expected env to be visible")
	}
}

// TestIsPathUnder verifies ancestor-or-self checks.
func TestIsPathUnder(testingInstance *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "project")
	testCases := []struct {
		testName  string
		candidate string
		expected  bool
	}{
		{testName: "self", candidate: root, expected: true},
		{testName: "child", candidate: filepath.Join(root, "src"), expected: true},
		{testName: "deep child", candidate: filepath.Join(root, "src", "a", "b.go"), expected: true},
		{testName: "parent", candidate: filepath.Dir(root), expected: false},
		{testName: "sibling with shared prefix", candidate: root + "-old", expected: false},
		{testName: "dotdot prefixed name", candidate: filepath.Join(root, "..data"), expected: true},
	}
	for _, testCase := range testCases {
		if actual := utils.IsPathUnder(testCase.candidate, root); actual != testCase.expected {
			testingInstance.Errorf("%s: expected %t, got %t", testCase.testName, testCase.expected, actual)
		}
	}
	if !utils.IsPathUnderAny(filepath.Join(root, "x"), []string{"/elsewhere", root}) {
		testingInstance.Errorf("expected IsPathUnderAny to find the second parent")
	}
}

// TestRelativePathOrSelf verifies relative path calculations.
func TestRelativePathOrSelf(testingInstance *testing.T) {
	temporaryRoot := testingInstance.TempDir()
	nestedPath := filepath.Join(temporaryRoot, "a", "b.txt")
	if actual := utils.RelativePathOrSelf(nestedPath, temporaryRoot); actual != "a/b.txt" {
		testingInstance.Errorf("expected a/b.txt, got %s", actual)
	}
	if actual := utils.RelativePathOrSelf(temporaryRoot, temporaryRoot); actual != "." {
		testingInstance.Errorf("expected ., got %s", actual)
	}
}

// TestIsFileBinary verifies binary sniffing on real files.
func TestIsFileBinary(testingInstance *testing.T) {
	temporaryRoot := testingInstance.TempDir()
	textPath := filepath.Join(temporaryRoot, "sample.txt")
	binaryPath := filepath.Join(temporaryRoot, "sample.bin")
	if writeError := os.WriteFile(textPath, []byte("plain text\n"), 0o600); writeError != nil {
		testingInstance.Fatalf("write text file: %v", writeError)
	}
	if writeError := os.WriteFile(binaryPath, []byte{0x00, 0x01, 0x02}, 0o600); writeError != nil {
		testingInstance.Fatalf("write binary file: %v", writeError)
	}

	isBinary, sniffError := utils.IsFileBinary(textPath)
	if sniffError != nil || isBinary {
		testingInstance.Errorf("expected text file to be text, got binary=%t err=%v", isBinary, sniffError)
	}
	isBinary, sniffError = utils.IsFileBinary(binaryPath)
	if sniffError != nil || !isBinary {
		testingInstance.Errorf("expected binary file to be binary, got binary=%t err=%v", isBinary, sniffError)
	}
	if _, sniffError = utils.IsFileBinary(filepath.Join(temporaryRoot, "missing")); sniffError == nil {
		testingInstance.Errorf("expected error for missing file")
	}
}
