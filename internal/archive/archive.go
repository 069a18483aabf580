// Package archive packs a selection result into a zip file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	zipExtension = ".zip"

	createArchiveMessage = "create archive %s: %w"
	addEntryMessage      = "add %s to archive: %w"
	closeArchiveMessage  = "finalize archive %s: %w"
)

// PathWithExtension appends .zip when path carries no extension.
func PathWithExtension(path string) string {
	if filepath.Ext(path) == "" {
		return path + zipExtension
	}
	return path
}

// WriteFile creates a zip archive at path holding every entry of root.
func WriteFile(path string, root *types.TreeNode) error {
	if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
		return fmt.Errorf(createArchiveMessage, path, mkdirErr)
	}
	archiveFile, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf(createArchiveMessage, path, createErr)
	}
	writeErr := Write(archiveFile, root)
	closeErr := archiveFile.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf(closeArchiveMessage, path, closeErr)
	}
	return nil
}

// Write streams root into writer as a zip. Entry names are relative to root with forward slashes and
// directories end with a slash. An empty tree still yields a valid archive.
func Write(writer io.Writer, root *types.TreeNode) error {
	zipWriter := zip.NewWriter(writer)
	if root != nil {
		for _, child := range root.Children {
			if addErr := addNode(zipWriter, root.Path, child); addErr != nil {
				zipWriter.Close()
				return addErr
			}
		}
	}
	if closeErr := zipWriter.Close(); closeErr != nil {
		return fmt.Errorf(closeArchiveMessage, "stream", closeErr)
	}
	return nil
}

func addNode(zipWriter *zip.Writer, rootPath string, node *types.TreeNode) error {
	entryName := utils.RelativePathOrSelf(node.Path, rootPath)
	if node.IsDirectory() {
		header := &zip.FileHeader{Name: strings.TrimSuffix(entryName, "/") + "/", Method: zip.Store}
		header.SetMode(os.ModeDir | 0o755)
		if _, headerErr := zipWriter.CreateHeader(header); headerErr != nil {
			return fmt.Errorf(addEntryMessage, node.Path, headerErr)
		}
		for _, child := range node.Children {
			if childErr := addNode(zipWriter, rootPath, child); childErr != nil {
				return childErr
			}
		}
		return nil
	}
	return addFile(zipWriter, node.Path, entryName)
}

func addFile(zipWriter *zip.Writer, filePath string, entryName string) error {
	fileHandle, openErr := os.Open(filePath)
	if openErr != nil {
		return fmt.Errorf(addEntryMessage, filePath, openErr)
	}
	defer fileHandle.Close()

	info, statErr := fileHandle.Stat()
	if statErr != nil {
		return fmt.Errorf(addEntryMessage, filePath, statErr)
	}
	header, headerErr := zip.FileInfoHeader(info)
	if headerErr != nil {
		return fmt.Errorf(addEntryMessage, filePath, headerErr)
	}
	header.Name = entryName
	header.Method = zip.Deflate
	entryWriter, createErr := zipWriter.CreateHeader(header)
	if createErr != nil {
		return fmt.Errorf(addEntryMessage, filePath, createErr)
	}
	if _, copyErr := io.Copy(entryWriter, fileHandle); copyErr != nil {
		return fmt.Errorf(addEntryMessage, filePath, copyErr)
	}
	return nil
}
