package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFixture(testingInstance *testing.T) (*git.Repository, string, plumbing.Hash) {
	testingInstance.Helper()
	repositoryDirectory := testingInstance.TempDir()
	repository, initErr := git.PlainInit(repositoryDirectory, false)
	if initErr != nil {
		testingInstance.Fatalf("init repository: %v", initErr)
	}
	if writeErr := os.WriteFile(filepath.Join(repositoryDirectory, "a.txt"), []byte("a"), 0o600); writeErr != nil {
		testingInstance.Fatalf("write file: %v", writeErr)
	}
	worktree, worktreeErr := repository.Worktree()
	if worktreeErr != nil {
		testingInstance.Fatalf("worktree: %v", worktreeErr)
	}
	if _, addErr := worktree.Add("a.txt"); addErr != nil {
		testingInstance.Fatalf("add: %v", addErr)
	}
	commitHash, commitErr := worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "gitree", Email: "gitree@example.com", When: time.Unix(0, 0)},
	})
	if commitErr != nil {
		testingInstance.Fatalf("commit: %v", commitErr)
	}
	return repository, repositoryDirectory, commitHash
}

func TestRepositoryVersionWithoutTag(testingInstance *testing.T) {
	_, repositoryDirectory, commitHash := commitFixture(testingInstance)
	nestedDirectory := filepath.Join(repositoryDirectory, "nested")
	if mkdirErr := os.Mkdir(nestedDirectory, 0o755); mkdirErr != nil {
		testingInstance.Fatalf("mkdir: %v", mkdirErr)
	}

	version, versionErr := repositoryVersion(nestedDirectory)
	if versionErr != nil {
		testingInstance.Fatalf("repositoryVersion error: %v", versionErr)
	}
	if version != commitHash.String()[:shortHashLength] {
		testingInstance.Fatalf("expected abbreviated hash, got %q", version)
	}
}

func TestRepositoryVersionWithTag(testingInstance *testing.T) {
	testCases := []struct {
		name       string
		tagOptions func() *git.CreateTagOptions
	}{
		{name: "lightweight", tagOptions: func() *git.CreateTagOptions { return nil }},
		{
			name: "annotated",
			tagOptions: func() *git.CreateTagOptions {
				return &git.CreateTagOptions{
					Tagger:  &object.Signature{Name: "gitree", Email: "gitree@example.com", When: time.Unix(0, 0)},
					Message: "release",
				}
			},
		},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			repository, repositoryDirectory, commitHash := commitFixture(testingInstance)
			if _, tagErr := repository.CreateTag("v1.2.3", commitHash, testCase.tagOptions()); tagErr != nil {
				testingInstance.Fatalf("create tag: %v", tagErr)
			}
			version, versionErr := repositoryVersion(repositoryDirectory)
			if versionErr != nil {
				testingInstance.Fatalf("repositoryVersion error: %v", versionErr)
			}
			if version != "v1.2.3" {
				testingInstance.Fatalf("expected tag version, got %q", version)
			}
		})
	}
}

func TestRepositoryVersionOutsideRepository(testingInstance *testing.T) {
	if _, versionErr := repositoryVersion(testingInstance.TempDir()); versionErr == nil {
		testingInstance.Fatalf("expected an error outside a repository")
	}
}
