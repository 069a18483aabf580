// Package config loads gitree defaults from global and project configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/gitree/internal/types"
	"github.com/temirov/gitree/internal/utils"
)

const (
	// DefaultMaxItems caps entries listed per directory.
	DefaultMaxItems = 20
	// DefaultMaxEntries caps entries listed across the whole tree.
	DefaultMaxEntries = 40
	// DefaultMaxDepth caps directory descent.
	DefaultMaxDepth = 5
	// DefaultGitignoreDepth is the deepest level whose ignore files are loaded.
	DefaultGitignoreDepth = 5
	// DefaultExcludeDepth is the deepest level at which exclude paths apply.
	DefaultExcludeDepth = 5
	// DefaultMaxFileSizeMegabytes is the largest file whose contents are exported.
	DefaultMaxFileSizeMegabytes = 1.0
	// DefaultTokenModel is the model used for token estimates.
	DefaultTokenModel = "gpt-4o"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipFiles ignores both configuration files and returns the built-in defaults.
	SkipFiles bool
}

// ApplicationConfiguration mirrors the configurable command line options. Pointer fields distinguish an
// unset value from a zero value.
type ApplicationConfiguration struct {
	Format           string             `mapstructure:"format" yaml:"format,omitempty"`
	MaxItems         *int               `mapstructure:"max_items" yaml:"max_items,omitempty"`
	MaxEntries       *int               `mapstructure:"max_entries" yaml:"max_entries,omitempty"`
	MaxDepth         *int               `mapstructure:"max_depth" yaml:"max_depth,omitempty"`
	GitignoreDepth   *int               `mapstructure:"gitignore_depth" yaml:"gitignore_depth,omitempty"`
	ExcludeDepth     *int               `mapstructure:"exclude_depth" yaml:"exclude_depth,omitempty"`
	HiddenItems      *bool              `mapstructure:"hidden_items" yaml:"hidden_items,omitempty"`
	Gitignore        *bool              `mapstructure:"gitignore" yaml:"gitignore,omitempty"`
	Exclude          []string           `mapstructure:"exclude" yaml:"exclude"`
	Include          []string           `mapstructure:"include" yaml:"include"`
	IncludeFileTypes []string           `mapstructure:"include_file_types" yaml:"include_file_types"`
	Emoji            *bool              `mapstructure:"emoji" yaml:"emoji,omitempty"`
	FilesFirst       *bool              `mapstructure:"files_first" yaml:"files_first,omitempty"`
	NoColor          *bool              `mapstructure:"no_color" yaml:"no_color,omitempty"`
	NoContents       *bool              `mapstructure:"no_contents" yaml:"no_contents,omitempty"`
	NoContentsFor    []string           `mapstructure:"no_contents_for" yaml:"no_contents_for"`
	MaxFileSize      *float64           `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`
	OverrideFiles    *bool              `mapstructure:"override_files" yaml:"override_files,omitempty"`
	NoFiles          *bool              `mapstructure:"no_files" yaml:"no_files,omitempty"`
	NoMaxItems       *bool              `mapstructure:"no_max_items" yaml:"no_max_items,omitempty"`
	NoMaxEntries     *bool              `mapstructure:"no_max_entries" yaml:"no_max_entries,omitempty"`
	NoMaxDepth       *bool              `mapstructure:"no_max_depth" yaml:"no_max_depth,omitempty"`
	Tokens           TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
	Log              LogConfiguration   `mapstructure:"log" yaml:"log"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
}

// LogConfiguration controls diagnostic output.
type LogConfiguration struct {
	Verbose *bool  `mapstructure:"verbose" yaml:"verbose,omitempty"`
	File    string `mapstructure:"file" yaml:"file,omitempty"`
}

// Defaults returns the built-in configuration every other source overlays.
func Defaults() ApplicationConfiguration {
	return ApplicationConfiguration{
		Format:           types.FormatTree,
		MaxItems:         intPointer(DefaultMaxItems),
		MaxEntries:       intPointer(DefaultMaxEntries),
		MaxDepth:         intPointer(DefaultMaxDepth),
		GitignoreDepth:   intPointer(DefaultGitignoreDepth),
		ExcludeDepth:     intPointer(DefaultExcludeDepth),
		HiddenItems:      boolPointer(false),
		Gitignore:        boolPointer(false),
		Exclude:          []string{},
		Include:          []string{},
		IncludeFileTypes: []string{},
		Emoji:            boolPointer(false),
		FilesFirst:       boolPointer(false),
		NoColor:          boolPointer(false),
		NoContents:       boolPointer(false),
		NoContentsFor:    []string{},
		MaxFileSize:      floatPointer(DefaultMaxFileSizeMegabytes),
		OverrideFiles:    boolPointer(true),
		NoFiles:          boolPointer(false),
		NoMaxItems:       boolPointer(false),
		NoMaxEntries:     boolPointer(false),
		NoMaxDepth:       boolPointer(false),
		Tokens:           TokenConfiguration{Enabled: boolPointer(false), Model: DefaultTokenModel},
		Log:              LogConfiguration{Verbose: boolPointer(false)},
	}
}

// LoadApplicationConfiguration overlays the global file and then the project file onto Defaults.
// The project file is .gitree/config.<ext> under the working directory unless an explicit path is given.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	merged := Defaults()
	if options.SkipFiles {
		return merged, nil
	}

	if globalDirectory, directoryErr := Directory(InitTargetGlobal, options.WorkingDirectory); directoryErr == nil {
		globalConfig, loadErr := loadConfigurationFromDirectory(globalDirectory)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	var localConfig ApplicationConfiguration
	var loadErr error
	if options.ExplicitFilePath != utils.EmptyString {
		explicitPath := options.ExplicitFilePath
		if !filepath.IsAbs(explicitPath) && options.WorkingDirectory != utils.EmptyString {
			explicitPath = filepath.Join(options.WorkingDirectory, explicitPath)
		}
		localConfig, loadErr = loadConfigurationFromPath(explicitPath)
	} else {
		localDirectory, directoryErr := Directory(InitTargetLocal, options.WorkingDirectory)
		if directoryErr != nil {
			return ApplicationConfiguration{}, directoryErr
		}
		localConfig, loadErr = loadConfigurationFromDirectory(localDirectory)
	}
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.Exclude = utils.DeduplicatePatterns(merged.Exclude)
	merged.Include = utils.DeduplicatePatterns(merged.Include)
	return merged, nil
}

// loadConfigurationFromDirectory reads config.<ext> from directory in any format viper understands.
// A missing directory or file yields an empty configuration.
func loadConfigurationFromDirectory(directory string) (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetConfigName(utils.ConfigFileBaseName)
	reader.AddConfigPath(directory)
	if readErr := reader.ReadInConfig(); readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(readErr, &notFound) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", directory, readErr)
	}
	return decodeConfiguration(reader, reader.ConfigFileUsed())
}

// loadConfigurationFromPath reads an explicitly named configuration file, which must exist.
func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	return decodeConfiguration(reader, path)
}

func decodeConfiguration(reader *viper.Viper, path string) (ApplicationConfiguration, error) {
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Format != utils.EmptyString {
		result.Format = override.Format
	}
	mergeInt(&result.MaxItems, override.MaxItems)
	mergeInt(&result.MaxEntries, override.MaxEntries)
	mergeInt(&result.MaxDepth, override.MaxDepth)
	mergeInt(&result.GitignoreDepth, override.GitignoreDepth)
	mergeInt(&result.ExcludeDepth, override.ExcludeDepth)
	for target, source := range map[**bool]*bool{
		&result.HiddenItems:   override.HiddenItems,
		&result.Gitignore:     override.Gitignore,
		&result.Emoji:         override.Emoji,
		&result.FilesFirst:    override.FilesFirst,
		&result.NoColor:       override.NoColor,
		&result.NoContents:    override.NoContents,
		&result.OverrideFiles: override.OverrideFiles,
		&result.NoFiles:       override.NoFiles,
		&result.NoMaxItems:    override.NoMaxItems,
		&result.NoMaxEntries:  override.NoMaxEntries,
		&result.NoMaxDepth:    override.NoMaxDepth,
	} {
		if source != nil {
			*target = cloneBool(source)
		}
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, override.Exclude...)
	}
	if len(override.Include) > 0 {
		result.Include = append([]string{}, override.Include...)
	}
	if len(override.IncludeFileTypes) > 0 {
		result.IncludeFileTypes = append([]string{}, override.IncludeFileTypes...)
	}
	if len(override.NoContentsFor) > 0 {
		result.NoContentsFor = append([]string{}, override.NoContentsFor...)
	}
	if override.MaxFileSize != nil {
		result.MaxFileSize = floatPointer(*override.MaxFileSize)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Log = result.Log.merge(override.Log)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != utils.EmptyString {
		result.Model = override.Model
	}
	return result
}

func (config LogConfiguration) merge(override LogConfiguration) LogConfiguration {
	result := config
	if override.Verbose != nil {
		result.Verbose = cloneBool(override.Verbose)
	}
	if override.File != utils.EmptyString {
		result.File = override.File
	}
	return result
}

// Budgets converts the numeric limits and their disable switches into traversal budgets.
func (config ApplicationConfiguration) Budgets() types.Budgets {
	return types.Budgets{
		MaxDepth:       types.Limit{Value: IntValue(config.MaxDepth), Disabled: BoolValue(config.NoMaxDepth)},
		MaxItems:       types.Limit{Value: IntValue(config.MaxItems), Disabled: BoolValue(config.NoMaxItems)},
		MaxEntries:     types.Limit{Value: IntValue(config.MaxEntries), Disabled: BoolValue(config.NoMaxEntries)},
		ExcludeDepth:   types.Limit{Value: IntValue(config.ExcludeDepth)},
		GitignoreDepth: types.Limit{Value: IntValue(config.GitignoreDepth)},
	}
}

// BoolValue dereferences value, treating nil as false.
func BoolValue(value *bool) bool {
	return value != nil && *value
}

// IntValue dereferences value, treating nil as zero.
func IntValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func mergeInt(target **int, source *int) {
	if source != nil {
		*target = intPointer(*source)
	}
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func boolPointer(value bool) *bool {
	return &value
}

func intPointer(value int) *int {
	return &value
}

func floatPointer(value float64) *float64 {
	return &value
}
