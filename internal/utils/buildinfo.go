package utils

import (
	"errors"
	"runtime/debug"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
	shortHashLength    = 7
)

// ApplicationVersion reports the module version stamped into the binary. Development builds fall back to the
// tag pointing at HEAD of the repository containing directory, then to the abbreviated HEAD hash.
func ApplicationVersion(directory string) string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	version, versionErr := repositoryVersion(directory)
	if versionErr != nil {
		return unknownVersion
	}
	return version
}

func repositoryVersion(directory string) (string, error) {
	repository, openErr := git.PlainOpenWithOptions(directory, &git.PlainOpenOptions{DetectDotGit: true})
	if openErr != nil {
		return "", openErr
	}
	head, headErr := repository.Head()
	if headErr != nil {
		return "", headErr
	}
	tagName, tagErr := tagAt(repository, head.Hash())
	if tagErr != nil {
		return "", tagErr
	}
	if tagName != "" {
		return tagName, nil
	}
	return head.Hash().String()[:shortHashLength], nil
}

// tagAt returns the name of a lightweight or annotated tag resolving to commit, or an empty string.
func tagAt(repository *git.Repository, commit plumbing.Hash) (string, error) {
	tags, tagsErr := repository.Tags()
	if tagsErr != nil {
		return "", tagsErr
	}
	tagName := ""
	iterateErr := tags.ForEach(func(reference *plumbing.Reference) error {
		target := reference.Hash()
		if annotatedTag, annotatedErr := repository.TagObject(target); annotatedErr == nil {
			target = annotatedTag.Target
		}
		if target != commit {
			return nil
		}
		tagName = reference.Name().Short()
		return storer.ErrStop
	})
	if iterateErr != nil && !errors.Is(iterateErr, storer.ErrStop) {
		return "", iterateErr
	}
	return tagName, nil
}
