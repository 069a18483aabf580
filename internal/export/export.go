// Package export assembles the structure-plus-contents payload used by --export and --copy.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	fileContentsHeader      = "==== FILE CONTENTS ===="
	textFileHeaderFormat    = "FILE: %s"
	textFileHeaderPadding   = 6
	markdownStructureHeader = "## Project Structure"
	markdownFilesHeader     = "## Files"
	markdownFileFormat      = "### File: %s"
	markdownContentFence    = "```text"
	markdownClosingFence    = "```"
	jsonIndent              = "  "

	BinaryContentPlaceholder  = "(binary content omitted)"
	OmittedContentPlaceholder = "(contents omitted)"
	tooLargeContentFormat     = "(file too large: %s)"

	DefaultConcurrency = 8

	unsupportedFormatMessage = "unsupported export format %q"
	fileReadWarningMessage   = "unable to read file contents"
	exportExistsMessage      = "export file %s already exists, enable override_files to replace it"
	createDirectoryMessage   = "create export directory %s: %w"
	writeExportMessage       = "write export file %s: %w"
)

// ErrExportExists reports that the export target is present and overriding is off.
var ErrExportExists = errors.New("export file already exists")

// Options controls which file contents enter the payload.
type Options struct {
	Format string
	// NoContents drops every file body.
	NoContents bool
	// NoContentsFor lists absolute paths whose files keep their header but lose their body.
	NoContentsFor []string
	// MaxFileSizeBytes caps readable files. Zero or less means no cap.
	MaxFileSizeBytes int64
	Concurrency      int
}

// FileContent is one file entry of the payload.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type jsonPayload struct {
	Structure []string      `json:"structure"`
	Files     []FileContent `json:"files"`
}

// Builder reads file contents and lays out export payloads.
type Builder struct {
	options Options
	logger  *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(options Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	if options.Format == "" {
		options.Format = types.FormatText
	}
	return &Builder{options: options, logger: logger}
}

// Build returns the payload for root. structureLines is the already rendered structure.
func (builder *Builder) Build(ctx context.Context, root *types.TreeNode, structureLines []string) (string, error) {
	switch builder.options.Format {
	case types.FormatTree, types.FormatText, types.FormatMarkdown, types.FormatJSON:
	default:
		return "", fmt.Errorf(unsupportedFormatMessage, builder.options.Format)
	}
	files, readErr := builder.ReadContents(ctx, root)
	if readErr != nil {
		return "", readErr
	}
	switch builder.options.Format {
	case types.FormatMarkdown:
		return strings.Join(markdownLines(structureLines, files), "\n"), nil
	case types.FormatJSON:
		if structureLines == nil {
			structureLines = []string{}
		}
		if files == nil {
			files = []FileContent{}
		}
		encoded, encodeErr := json.MarshalIndent(jsonPayload{Structure: structureLines, Files: files}, "", jsonIndent)
		if encodeErr != nil {
			return "", encodeErr
		}
		return string(encoded), nil
	default:
		return strings.Join(textLines(structureLines, files), "\n"), nil
	}
}

func textLines(structureLines []string, files []FileContent) []string {
	lines := append([]string{}, structureLines...)
	lines = append(lines, "", fileContentsHeader)
	for _, file := range files {
		lines = append(lines,
			"",
			fmt.Sprintf(textFileHeaderFormat, file.Path),
			strings.Repeat("-", textFileHeaderPadding+len(file.Path)),
			strings.TrimRight(file.Content, "\n"),
		)
	}
	return lines
}

func markdownLines(structureLines []string, files []FileContent) []string {
	lines := []string{markdownStructureHeader}
	lines = append(lines, structureLines...)
	lines = append(lines, markdownFilesHeader, "")
	for _, file := range files {
		lines = append(lines,
			fmt.Sprintf(markdownFileFormat, file.Path),
			"",
			markdownContentFence,
			strings.TrimRight(file.Content, "\n"),
			markdownClosingFence,
			"",
		)
	}
	return lines
}

// ReadContents reads every file of root concurrently. Entries keep tree order and carry paths relative to root.
func (builder *Builder) ReadContents(ctx context.Context, root *types.TreeNode) ([]FileContent, error) {
	if root == nil {
		return nil, nil
	}
	filePaths := root.Files()
	contents := make([]FileContent, len(filePaths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(builder.options.Concurrency)
	for fileIndex, filePath := range filePaths {
		group.Go(func() error {
			if contextErr := groupCtx.Err(); contextErr != nil {
				return contextErr
			}
			contents[fileIndex] = FileContent{
				Path:    utils.RelativePathOrSelf(filePath, root.Path),
				Content: builder.readContent(filePath),
			}
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}
	return contents, nil
}

func (builder *Builder) readContent(filePath string) string {
	if builder.options.NoContents || utils.IsPathUnderAny(filePath, builder.options.NoContentsFor) {
		return OmittedContentPlaceholder
	}
	info, statErr := os.Stat(filePath)
	if statErr != nil {
		builder.logger.Warn(fileReadWarningMessage, zap.String("path", filePath), zap.Error(statErr))
		return utils.EmptyString
	}
	if builder.options.MaxFileSizeBytes > 0 && info.Size() > builder.options.MaxFileSizeBytes {
		return fmt.Sprintf(tooLargeContentFormat, utils.FormatFileSize(info.Size()))
	}
	if binary, sniffErr := utils.IsFileBinary(filePath); sniffErr == nil && binary {
		return BinaryContentPlaceholder
	}
	data, readErr := os.ReadFile(filePath)
	if readErr != nil {
		builder.logger.Warn(fileReadWarningMessage, zap.String("path", filePath), zap.Error(readErr))
		return utils.EmptyString
	}
	if utils.IsBinary(data) {
		return BinaryContentPlaceholder
	}
	return string(data)
}

// PathWithExtension appends the extension matching format when path has none.
func PathWithExtension(path string, format string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	switch format {
	case types.FormatMarkdown:
		return path + ".md"
	case types.FormatJSON:
		return path + ".json"
	default:
		return path + ".txt"
	}
}

// WriteFile stores payload at path, creating parent directories. An existing file is replaced only when override is set.
func WriteFile(path string, payload string, override bool) error {
	if _, statErr := os.Stat(path); statErr == nil && !override {
		return fmt.Errorf(exportExistsMessage+": %w", path, ErrExportExists)
	}
	directory := filepath.Dir(path)
	if mkdirErr := os.MkdirAll(directory, 0o755); mkdirErr != nil {
		return fmt.Errorf(createDirectoryMessage, directory, mkdirErr)
	}
	if writeErr := os.WriteFile(path, []byte(payload), 0o644); writeErr != nil {
		return fmt.Errorf(writeExportMessage, path, writeErr)
	}
	return nil
}
