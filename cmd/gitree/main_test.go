package main_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// #nosec G204
func buildBinary(testSetup *testing.T) string {
	testSetup.Helper()
	binaryName := "gitree_integration_test_binary"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(testSetup.TempDir(), binaryName)

	currentDirectory, directoryError := os.Getwd()
	if directoryError != nil {
		testSetup.Fatalf("Failed to get current working directory: %v", directoryError)
	}
	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCommand.Dir = currentDirectory
	outputData, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		testSetup.Fatalf("Failed to build binary in %s: %v\nBuild Output:\n%s", currentDirectory, buildErr, string(outputData))
	}
	return binaryPath
}

// #nosec G204
func runBinary(testSetup *testing.T, binaryPath string, workingDirectory string, arguments ...string) (string, string, error) {
	testSetup.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "HOME="+testSetup.TempDir())

	var standardOutputBuffer, standardErrorBuffer bytes.Buffer
	command.Stdout = &standardOutputBuffer
	command.Stderr = &standardErrorBuffer
	runError := command.Run()
	return standardOutputBuffer.String(), standardErrorBuffer.String(), runError
}

func createProject(testSetup *testing.T) string {
	testSetup.Helper()
	projectDirectory, evaluateError := filepath.EvalSymlinks(testSetup.TempDir())
	if evaluateError != nil {
		testSetup.Fatalf("evaluate temp dir: %v", evaluateError)
	}
	files := map[string]string{
		".gitignore":    "build/\n",
		"main.go":       "package main\n",
		"build/out.bin": "binary\n",
		"pkg/lib.go":    "package pkg\n",
	}
	for relativePath, content := range files {
		fullPath := filepath.Join(projectDirectory, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			testSetup.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			testSetup.Fatalf("write: %v", err)
		}
	}
	return projectDirectory
}

func TestBinaryEndToEnd(testSetup *testing.T) {
	if testing.Short() {
		testSetup.Skip("skipping binary build in short mode")
	}
	binaryPath := buildBinary(testSetup)
	projectDirectory := createProject(testSetup)

	standardOutput, standardError, runError := runBinary(testSetup, binaryPath, projectDirectory, "-g")
	if runError != nil {
		testSetup.Fatalf("gitree -g failed: %v\n%s", runError, standardError)
	}
	expected := fmt.Sprintf("%s\n├── main.go\n└── pkg\n    └── lib.go\n", filepath.Base(projectDirectory))
	if standardOutput != expected {
		testSetup.Fatalf("unexpected output:\n%s", standardOutput)
	}

	_, standardError, runError = runBinary(testSetup, binaryPath, projectDirectory, "missing/*.go")
	var exitError *exec.ExitError
	if !errors.As(runError, &exitError) || exitError.ExitCode() == 0 {
		testSetup.Fatalf("expected a non-zero exit, got %v", runError)
	}
	if !strings.Contains(standardError, "gitree failed") {
		testSetup.Fatalf("expected failure message on stderr, got %q", standardError)
	}
}
