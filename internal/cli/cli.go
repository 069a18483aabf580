// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitree/internal/archive"
	"github.com/temirov/gitree/internal/config"
	"github.com/temirov/gitree/internal/export"
	"github.com/temirov/gitree/internal/interactive"
	"github.com/temirov/gitree/internal/pathresolver"
	"github.com/temirov/gitree/internal/selection"
	"github.com/temirov/gitree/internal/services/clipboard"
	"github.com/temirov/gitree/internal/tokenizer"
	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	rootUse              = "gitree [paths...]"
	rootShortDescription = "print a project tree with gitignore-aware filtering"
	rootLongDescription  = `gitree lists the files and directories below the given paths or glob patterns.
Entries are filtered by hidden-name, include, exclude, .gitignore and extension rules and bounded by depth,
per-directory and total entry budgets. The selection can be printed as a tree, Markdown or JSON, exported
with file contents, copied to the clipboard or packed into a zip archive.`
	rootUsageExample = `  # Show the current directory honouring .gitignore files
  gitree -g

  # Only Go and Markdown files, without limits
  gitree -t go md

  # Export the project with contents as Markdown
  gitree --format md -x project`

	defaultPath         = "."
	versionTemplate     = "gitree version: %s\n"
	fullMaxDepth        = 5
	onlyTypesGlobFormat = "**/*.%s"

	versionFlagName          = "version"
	verboseFlagName          = "verbose"
	logFlagAlias             = "log"
	configFlagName           = "config"
	noConfigFlagName         = "no-config"
	initConfigFlagName       = "init-config"
	forceFlagName            = "force"
	zipFlagName              = "zip"
	exportFlagName           = "export"
	formatFlagName           = "format"
	copyFlagName             = "copy"
	tokensFlagName           = "tokens"
	modelFlagName            = "model"
	maxItemsFlagName         = "max-items"
	maxEntriesFlagName       = "max-entries"
	maxDepthFlagName         = "max-depth"
	gitignoreDepthFlagName   = "gitignore-depth"
	hiddenItemsFlagName      = "hidden-items"
	allFlagAlias             = "all"
	excludeFlagName          = "exclude"
	excludeDepthFlagName     = "exclude-depth"
	includeFlagName          = "include"
	includeFileTypesFlagName = "include-file-types"
	filesFirstFlagName       = "files-first"
	noColorFlagName          = "no-color"
	emojiFlagName            = "emoji"
	noContentsFlagName       = "no-contents"
	noContentsForFlagName    = "no-contents-for"
	maxFileSizeFlagName      = "max-file-size"
	overrideFilesFlagName    = "override-files"
	noMaxEntriesFlagName     = "no-max-entries"
	noMaxItemsFlagName       = "no-max-items"
	noMaxDepthFlagName       = "no-max-depth"
	gitignoreFlagName        = "gitignore"
	noFilesFlagName          = "no-files"
	onlyDirsFlagAlias        = "only-dirs"
	fullFlagName             = "full"
	noLimitFlagName          = "no-limit"
	onlyTypesFlagName        = "only-types"
	interactiveFlagName      = "interactive"

	versionFlagDescription          = "display application version"
	verboseFlagDescription          = "print debug logs to stderr"
	configFlagDescription           = "read project configuration from this file"
	noConfigFlagDescription         = "ignore global and project configuration files"
	initConfigFlagDescription       = "write the default configuration (local or global) and exit"
	forceFlagDescription            = "overwrite an existing configuration file with --init-config"
	zipFlagDescription              = "pack the selected files into a zip archive"
	exportFlagDescription           = "write the structure and file contents to a file"
	formatFlagDescription           = "output format: tree, md or json"
	copyFlagDescription             = "copy the structure and file contents to the clipboard"
	tokensFlagDescription           = "report an estimated token count"
	modelFlagDescription            = "tokenizer model used by --tokens"
	maxItemsFlagDescription         = "maximum entries listed per directory"
	maxEntriesFlagDescription       = "maximum entries listed in total"
	maxDepthFlagDescription         = "maximum directory depth"
	gitignoreDepthFlagDescription   = "deepest level whose .gitignore files are read"
	hiddenItemsFlagDescription      = "include hidden files and directories"
	excludeFlagDescription          = "paths or glob patterns to exclude"
	excludeDepthFlagDescription     = "deepest level at which --exclude applies"
	includeFlagDescription          = "paths or glob patterns to include"
	includeFileTypesFlagDescription = "only list files with these extensions"
	filesFirstFlagDescription       = "list files before directories"
	noColorFlagDescription          = "disable coloured output"
	emojiFlagDescription            = "prefix entries with emoji"
	noContentsFlagDescription       = "omit file contents from --export and --copy"
	noContentsForFlagDescription    = "omit contents of these paths from --export and --copy"
	maxFileSizeFlagDescription      = "largest file in MB whose contents are exported"
	overrideFilesFlagDescription    = "replace an existing --export file"
	noMaxEntriesFlagDescription     = "disable the total entry limit"
	noMaxItemsFlagDescription       = "disable the per-directory entry limit"
	noMaxDepthFlagDescription       = "disable the depth limit"
	gitignoreFlagDescription        = "apply .gitignore rules"
	noFilesFlagDescription          = "list directories only"
	fullFlagDescription             = "shortcut for --max-depth 5"
	noLimitFlagDescription          = "disable depth, per-directory and total limits"
	onlyTypesFlagDescription        = "list only files with these extensions anywhere below the working directory"
	interactiveFlagDescription      = "choose entries from the selection interactively"

	invalidFormatMessage        = "invalid format value %q: must be tree, md or json"
	invalidInitTargetMessage    = "invalid init-config target %q: must be local or global"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	configurationWrittenFormat  = "configuration written to %s\n"
	tokensReportFormat          = "Estimated tokens (%s): %d\n"
	overlappingPatternsMessage  = "--include and --exclude patterns have overlapping values. These values will be removed from both lists"
	interactiveAbortedMessage   = "interactive selection cancelled"
	semanticFlagMessage         = "semantic flag applied"
	patternsFieldName           = "patterns"
	flagFieldName               = "flag"
)

// Dependencies carries the streams and services a command run talks to.
type Dependencies struct {
	Stdout           io.Writer
	Stderr           io.Writer
	Stdin            io.Reader
	Copier           clipboard.Copier
	WorkingDirectory string
	// Select replaces the terminal checklist in tests.
	Select func(root *types.TreeNode, input io.Reader, output io.Writer) (*types.TreeNode, error)
}

// commandOptions holds the raw flag values of one invocation.
type commandOptions struct {
	showVersion      bool
	verbose          bool
	configPath       string
	noConfig         bool
	initConfig       string
	force            bool
	zipPath          string
	exportPath       string
	format           string
	copy             bool
	tokens           bool
	model            string
	maxItems         int
	maxEntries       int
	maxDepth         int
	gitignoreDepth   int
	hiddenItems      bool
	exclude          []string
	excludeDepth     int
	include          []string
	includeFileTypes []string
	filesFirst       bool
	noColor          bool
	emoji            bool
	noContents       bool
	noContentsFor    []string
	maxFileSize      float64
	overrideFiles    bool
	noMaxEntries     bool
	noMaxItems       bool
	noMaxDepth       bool
	gitignore        bool
	noFiles          bool
	full             bool
	noLimit          bool
	onlyTypes        []string
	interactive      bool
}

// Execute runs the gitree application against the process streams.
func Execute() error {
	rootCommand := NewRootCommand(Dependencies{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		Copier: clipboard.NewService(),
	})
	return rootCommand.Execute()
}

// NewRootCommand builds the gitree command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Stdout == nil {
		dependencies.Stdout = io.Discard
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = io.Discard
	}
	if dependencies.Select == nil {
		dependencies.Select = interactive.Select
	}
	var options commandOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return run(command.Context(), command.Flags(), dependencies, options, arguments)
		},
	}
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	if dependencies.Stdin != nil {
		rootCommand.SetIn(dependencies.Stdin)
	}
	registerFlags(rootCommand.Flags(), &options)
	return rootCommand
}

func registerFlags(flagSet *pflag.FlagSet, options *commandOptions) {
	flagSet.SetNormalizeFunc(normalizeFlagAliases)

	flagSet.BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)
	flagSet.BoolVar(&options.verbose, verboseFlagName, false, verboseFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVar(&options.noConfig, noConfigFlagName, false, noConfigFlagDescription)
	flagSet.StringVar(&options.initConfig, initConfigFlagName, "", initConfigFlagDescription)
	flagSet.Lookup(initConfigFlagName).NoOptDefVal = string(config.InitTargetLocal)
	flagSet.BoolVar(&options.force, forceFlagName, false, forceFlagDescription)

	flagSet.StringVarP(&options.zipPath, zipFlagName, "z", "", zipFlagDescription)
	flagSet.StringVarP(&options.exportPath, exportFlagName, "x", "", exportFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, types.FormatTree, formatFlagDescription)
	flagSet.BoolVarP(&options.copy, copyFlagName, "c", false, copyFlagDescription)
	flagSet.BoolVar(&options.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)

	registerPositiveIntFlag(flagSet, &options.maxItems, maxItemsFlagName, config.DefaultMaxItems, maxItemsFlagDescription)
	registerPositiveIntFlag(flagSet, &options.maxEntries, maxEntriesFlagName, config.DefaultMaxEntries, maxEntriesFlagDescription)
	flagSet.IntVar(&options.maxDepth, maxDepthFlagName, config.DefaultMaxDepth, maxDepthFlagDescription)
	flagSet.IntVar(&options.gitignoreDepth, gitignoreDepthFlagName, config.DefaultGitignoreDepth, gitignoreDepthFlagDescription)
	flagSet.BoolVarP(&options.hiddenItems, hiddenItemsFlagName, "a", false, hiddenItemsFlagDescription)
	flagSet.StringSliceVar(&options.exclude, excludeFlagName, nil, excludeFlagDescription)
	flagSet.IntVar(&options.excludeDepth, excludeDepthFlagName, config.DefaultExcludeDepth, excludeDepthFlagDescription)
	flagSet.StringSliceVar(&options.include, includeFlagName, nil, includeFlagDescription)
	flagSet.StringSliceVar(&options.includeFileTypes, includeFileTypesFlagName, nil, includeFileTypesFlagDescription)
	flagSet.BoolVar(&options.filesFirst, filesFirstFlagName, false, filesFirstFlagDescription)
	flagSet.BoolVar(&options.noColor, noColorFlagName, false, noColorFlagDescription)
	flagSet.BoolVar(&options.emoji, emojiFlagName, false, emojiFlagDescription)
	flagSet.BoolVar(&options.noContents, noContentsFlagName, false, noContentsFlagDescription)
	flagSet.StringSliceVar(&options.noContentsFor, noContentsForFlagName, nil, noContentsForFlagDescription)
	flagSet.Float64Var(&options.maxFileSize, maxFileSizeFlagName, config.DefaultMaxFileSizeMegabytes, maxFileSizeFlagDescription)
	flagSet.BoolVar(&options.overrideFiles, overrideFilesFlagName, true, overrideFilesFlagDescription)

	flagSet.BoolVar(&options.noMaxEntries, noMaxEntriesFlagName, false, noMaxEntriesFlagDescription)
	flagSet.BoolVar(&options.noMaxItems, noMaxItemsFlagName, false, noMaxItemsFlagDescription)
	flagSet.BoolVar(&options.noMaxDepth, noMaxDepthFlagName, false, noMaxDepthFlagDescription)
	flagSet.BoolVarP(&options.gitignore, gitignoreFlagName, "g", false, gitignoreFlagDescription)
	flagSet.BoolVar(&options.noFiles, noFilesFlagName, false, noFilesFlagDescription)

	flagSet.BoolVarP(&options.full, fullFlagName, "f", false, fullFlagDescription)
	flagSet.BoolVarP(&options.noLimit, noLimitFlagName, "n", false, noLimitFlagDescription)
	flagSet.StringSliceVarP(&options.onlyTypes, onlyTypesFlagName, "t", nil, onlyTypesFlagDescription)
	flagSet.BoolVarP(&options.interactive, interactiveFlagName, "i", false, interactiveFlagDescription)
}

// normalizeFlagAliases maps alternate long names onto their canonical flag.
func normalizeFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case logFlagAlias:
		name = verboseFlagName
	case allFlagAlias:
		name = hiddenItemsFlagName
	case onlyDirsFlagAlias:
		name = noFilesFlagName
	}
	return pflag.NormalizedName(name)
}

func run(ctx context.Context, flagSet *pflag.FlagSet, dependencies Dependencies, options commandOptions, arguments []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	workingDirectory := dependencies.WorkingDirectory
	if workingDirectory == utils.EmptyString {
		currentDirectory, workingDirectoryErr := os.Getwd()
		if workingDirectoryErr != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryErr)
		}
		workingDirectory = currentDirectory
	}

	if options.showVersion {
		_, writeErr := fmt.Fprintf(dependencies.Stdout, versionTemplate, utils.ApplicationVersion(workingDirectory))
		return writeErr
	}

	if flagSet.Changed(initConfigFlagName) {
		return initializeConfiguration(dependencies, options, workingDirectory)
	}

	loadedConfiguration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
		SkipFiles:        options.noConfig,
	})
	if loadErr != nil {
		return loadErr
	}
	configuration := loadedConfiguration.Merge(flagOverrides(flagSet, options))

	logger := utils.NewConfiguredLogger(utils.LoggerOptions{
		Verbose:  config.BoolValue(configuration.Log.Verbose),
		FilePath: configuration.Log.File,
	})
	defer logger.Sync()

	configuration.Format = strings.ToLower(configuration.Format)
	if !isSupportedFormat(configuration.Format) {
		return fmt.Errorf(invalidFormatMessage, configuration.Format)
	}

	paths := arguments
	if len(paths) == 0 {
		paths = []string{defaultPath}
	}
	paths = applySemanticFlags(&configuration, options, paths, logger)
	zipPath, exportPath := fixOutputPaths(options, configuration.Format)
	removeOverlappingPatterns(&configuration, logger)

	resolver, resolverErr := pathresolver.NewResolver(workingDirectory, logger)
	if resolverErr != nil {
		return resolverErr
	}
	selectionResult, selectErr := selection.NewService(resolver, logger).Select(types.SelectionOptions{
		Paths:          paths,
		Include:        configuration.Include,
		Exclude:        configuration.Exclude,
		FileExtensions: configuration.IncludeFileTypes,
		Budgets:        configuration.Budgets(),
		HiddenItems:    config.BoolValue(configuration.HiddenItems),
		NoFiles:        config.BoolValue(configuration.NoFiles),
		UseGitignore:   config.BoolValue(configuration.Gitignore),
	})
	if selectErr != nil {
		return selectErr
	}

	root := selectionResult.Root
	if options.interactive {
		selectedRoot, interactiveErr := dependencies.Select(root, dependencies.Stdin, dependencies.Stderr)
		if errors.Is(interactiveErr, interactive.ErrAborted) {
			logger.Debug(interactiveAbortedMessage)
			return nil
		}
		if interactiveErr != nil {
			return interactiveErr
		}
		root = selectedRoot
	}

	pipeline := outputPipeline{
		dependencies:     dependencies,
		configuration:    configuration,
		workingDirectory: workingDirectory,
		zipPath:          zipPath,
		exportPath:       exportPath,
		copy:             options.copy,
		logger:           logger,
	}
	if outputErr := pipeline.run(ctx, root); outputErr != nil {
		return outputErr
	}

	for _, tip := range selectionResult.Tips {
		fmt.Fprintln(dependencies.Stderr, tip)
	}
	return nil
}

func initializeConfiguration(dependencies Dependencies, options commandOptions, workingDirectory string) error {
	target := config.InitTarget(strings.ToLower(strings.TrimSpace(options.initConfig)))
	if target != config.InitTargetLocal && target != config.InitTargetGlobal {
		return fmt.Errorf(invalidInitTargetMessage, options.initConfig)
	}
	writtenPath, initErr := config.InitializeConfiguration(config.InitOptions{
		Target:           target,
		Force:            options.force,
		WorkingDirectory: workingDirectory,
	})
	if initErr != nil {
		return initErr
	}
	_, writeErr := fmt.Fprintf(dependencies.Stdout, configurationWrittenFormat, writtenPath)
	return writeErr
}

// flagOverrides returns the configuration expressed by explicitly set flags only, so that unset flags
// never mask configuration file values.
func flagOverrides(flagSet *pflag.FlagSet, options commandOptions) config.ApplicationConfiguration {
	var overrides config.ApplicationConfiguration
	changed := flagSet.Changed

	if changed(formatFlagName) {
		overrides.Format = options.format
	}
	for flagName, binding := range map[string]struct {
		target **int
		value  int
	}{
		maxItemsFlagName:       {&overrides.MaxItems, options.maxItems},
		maxEntriesFlagName:     {&overrides.MaxEntries, options.maxEntries},
		maxDepthFlagName:       {&overrides.MaxDepth, options.maxDepth},
		gitignoreDepthFlagName: {&overrides.GitignoreDepth, options.gitignoreDepth},
		excludeDepthFlagName:   {&overrides.ExcludeDepth, options.excludeDepth},
	} {
		if changed(flagName) {
			value := binding.value
			*binding.target = &value
		}
	}
	for flagName, binding := range map[string]struct {
		target **bool
		value  bool
	}{
		hiddenItemsFlagName:   {&overrides.HiddenItems, options.hiddenItems},
		gitignoreFlagName:     {&overrides.Gitignore, options.gitignore},
		emojiFlagName:         {&overrides.Emoji, options.emoji},
		filesFirstFlagName:    {&overrides.FilesFirst, options.filesFirst},
		noColorFlagName:       {&overrides.NoColor, options.noColor},
		noContentsFlagName:    {&overrides.NoContents, options.noContents},
		overrideFilesFlagName: {&overrides.OverrideFiles, options.overrideFiles},
		noFilesFlagName:       {&overrides.NoFiles, options.noFiles},
		noMaxItemsFlagName:    {&overrides.NoMaxItems, options.noMaxItems},
		noMaxEntriesFlagName:  {&overrides.NoMaxEntries, options.noMaxEntries},
		noMaxDepthFlagName:    {&overrides.NoMaxDepth, options.noMaxDepth},
		tokensFlagName:        {&overrides.Tokens.Enabled, options.tokens},
		verboseFlagName:       {&overrides.Log.Verbose, options.verbose},
	} {
		if changed(flagName) {
			value := binding.value
			*binding.target = &value
		}
	}
	if changed(excludeFlagName) {
		overrides.Exclude = options.exclude
	}
	if changed(includeFlagName) {
		overrides.Include = options.include
	}
	if changed(includeFileTypesFlagName) {
		overrides.IncludeFileTypes = options.includeFileTypes
	}
	if changed(noContentsForFlagName) {
		overrides.NoContentsFor = options.noContentsFor
	}
	if changed(maxFileSizeFlagName) {
		maxFileSize := options.maxFileSize
		overrides.MaxFileSize = &maxFileSize
	}
	if changed(modelFlagName) {
		overrides.Tokens.Model = options.model
	}
	return overrides
}

// applySemanticFlags expands the shortcut flags into concrete settings and returns the paths to select from.
func applySemanticFlags(configuration *config.ApplicationConfiguration, options commandOptions, paths []string, logger *zap.Logger) []string {
	disabled := true
	if options.noLimit || options.zipPath != "" || options.exportPath != "" || options.copy {
		configuration.NoMaxItems = &disabled
		configuration.NoMaxEntries = &disabled
		configuration.NoMaxDepth = &disabled
		logger.Debug(semanticFlagMessage, zap.String(flagFieldName, noLimitFlagName))
	}
	if options.full {
		depth := fullMaxDepth
		configuration.MaxDepth = &depth
		logger.Debug(semanticFlagMessage, zap.String(flagFieldName, fullFlagName))
	}
	if len(options.onlyTypes) == 0 {
		return paths
	}
	var patterns []string
	for _, extension := range options.onlyTypes {
		normalized := strings.ToLower(strings.TrimLeft(strings.TrimSpace(extension), "."))
		if normalized != utils.EmptyString {
			patterns = append(patterns, fmt.Sprintf(onlyTypesGlobFormat, normalized))
		}
	}
	configuration.Include = utils.DeduplicatePatterns(append(append([]string{}, configuration.Include...), patterns...))
	logger.Debug(semanticFlagMessage, zap.String(flagFieldName, onlyTypesFlagName), zap.Strings(patternsFieldName, patterns))
	return nil
}

func fixOutputPaths(options commandOptions, format string) (string, string) {
	var zipPath, exportPath string
	if options.zipPath != "" {
		zipPath = archive.PathWithExtension(options.zipPath)
	}
	if options.exportPath != "" {
		exportPath = export.PathWithExtension(options.exportPath, format)
	}
	return zipPath, exportPath
}

// removeOverlappingPatterns drops values present in both include and exclude from both lists.
func removeOverlappingPatterns(configuration *config.ApplicationConfiguration, logger *zap.Logger) {
	common := make(map[string]struct{})
	for _, pattern := range configuration.Include {
		if utils.ContainsString(configuration.Exclude, pattern) {
			common[pattern] = struct{}{}
		}
	}
	if len(common) == 0 {
		return
	}
	logger.Warn(overlappingPatternsMessage)
	configuration.Include = withoutPatterns(configuration.Include, common)
	configuration.Exclude = withoutPatterns(configuration.Exclude, common)
}

func withoutPatterns(patterns []string, removed map[string]struct{}) []string {
	var kept []string
	for _, pattern := range patterns {
		if _, drop := removed[pattern]; !drop {
			kept = append(kept, pattern)
		}
	}
	return kept
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatTree, types.FormatMarkdown, types.FormatJSON:
		return true
	default:
		return false
	}
}
