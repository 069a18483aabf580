package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitree/internal/archive"
	"github.com/temirov/gitree/internal/config"
	"github.com/temirov/gitree/internal/export"
	"github.com/temirov/gitree/internal/output"
	"github.com/temirov/gitree/internal/services/clipboard"
	"github.com/temirov/gitree/internal/tokenizer"
	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	archiveWrittenMessage  = "archive written"
	exportWrittenMessage   = "export written"
	clipboardCopiedMessage = "selection copied to clipboard"
	pathFieldName          = "path"
)

// outputPipeline turns a selection into the requested artefact: a zip archive, or a rendered structure
// that is printed, exported or copied.
type outputPipeline struct {
	dependencies     Dependencies
	configuration    config.ApplicationConfiguration
	workingDirectory string
	zipPath          string
	exportPath       string
	copy             bool
	logger           *zap.Logger
}

func (pipeline outputPipeline) run(ctx context.Context, root *types.TreeNode) error {
	if pipeline.zipPath != "" {
		if archiveErr := archive.WriteFile(pipeline.zipPath, root); archiveErr != nil {
			return archiveErr
		}
		pipeline.logger.Info(archiveWrittenMessage, zap.String(pathFieldName, pipeline.zipPath))
		return nil
	}

	writesPayload := pipeline.copy || pipeline.exportPath != ""
	renderer := output.NewRenderer(output.Options{
		Format:     pipeline.configuration.Format,
		Emoji:      config.BoolValue(pipeline.configuration.Emoji),
		FilesFirst: config.BoolValue(pipeline.configuration.FilesFirst),
		Color:      !writesPayload && output.ColorSupported(config.BoolValue(pipeline.configuration.NoColor), pipeline.stdoutFile()),
	})
	structureLines, renderErr := renderer.Lines(root)
	if renderErr != nil {
		return renderErr
	}

	tokenSource := strings.Join(structureLines, "\n")
	if writesPayload {
		payload, payloadErr := pipeline.buildPayload(ctx, root, structureLines)
		if payloadErr != nil {
			return payloadErr
		}
		if deliverErr := pipeline.deliver(payload); deliverErr != nil {
			return deliverErr
		}
		tokenSource = payload
	} else {
		for _, line := range structureLines {
			if _, writeErr := fmt.Fprintln(pipeline.dependencies.Stdout, line); writeErr != nil {
				return writeErr
			}
		}
	}

	if config.BoolValue(pipeline.configuration.Tokens.Enabled) {
		return pipeline.reportTokens(tokenSource)
	}
	return nil
}

func (pipeline outputPipeline) buildPayload(ctx context.Context, root *types.TreeNode, structureLines []string) (string, error) {
	noContentsFor := make([]string, 0, len(pipeline.configuration.NoContentsFor))
	for _, path := range pipeline.configuration.NoContentsFor {
		if !filepath.IsAbs(path) {
			path = filepath.Join(pipeline.workingDirectory, path)
		}
		noContentsFor = append(noContentsFor, filepath.Clean(path))
	}
	var maxFileSizeBytes int64
	if pipeline.configuration.MaxFileSize != nil {
		maxFileSizeBytes = utils.MegabytesToBytes(*pipeline.configuration.MaxFileSize)
	}
	builder := export.NewBuilder(export.Options{
		Format:           pipeline.configuration.Format,
		NoContents:       config.BoolValue(pipeline.configuration.NoContents),
		NoContentsFor:    noContentsFor,
		MaxFileSizeBytes: maxFileSizeBytes,
	}, pipeline.logger)
	return builder.Build(ctx, root, structureLines)
}

// deliver sends payload to the clipboard when copying, otherwise to the export file.
func (pipeline outputPipeline) deliver(payload string) error {
	if pipeline.copy {
		if pipeline.dependencies.Copier == nil {
			return clipboard.ErrUnavailable
		}
		if copyErr := pipeline.dependencies.Copier.Copy(payload); copyErr != nil {
			return copyErr
		}
		pipeline.logger.Info(clipboardCopiedMessage)
		return nil
	}
	if writeErr := export.WriteFile(pipeline.exportPath, payload, config.BoolValue(pipeline.configuration.OverrideFiles)); writeErr != nil {
		return writeErr
	}
	pipeline.logger.Info(exportWrittenMessage, zap.String(pathFieldName, pipeline.exportPath))
	return nil
}

func (pipeline outputPipeline) reportTokens(text string) error {
	counter, model, counterErr := tokenizer.NewCounter(pipeline.configuration.Tokens.Model)
	if counterErr != nil {
		return counterErr
	}
	tokens, countErr := tokenizer.Count(counter, text)
	if countErr != nil {
		return countErr
	}
	_, writeErr := fmt.Fprintf(pipeline.dependencies.Stderr, tokensReportFormat, model, tokens)
	return writeErr
}

func (pipeline outputPipeline) stdoutFile() *os.File {
	file, _ := pipeline.dependencies.Stdout.(*os.File)
	return file
}
