package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/gitree/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the project configuration directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"
)

// ErrConfigurationExists is returned when the configuration file is present and Force is not set.
var ErrConfigurationExists = errors.New("configuration file already exists")

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// Directory returns the configuration directory of target: .gitree under workingDirectory for the project
// configuration and .gitree under the home directory for the global one.
func Directory(target InitTarget, workingDirectory string) (string, error) {
	switch target {
	case InitTargetLocal:
		if workingDirectory == utils.EmptyString {
			currentDirectory, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory: %w", err)
			}
			workingDirectory = currentDirectory
		}
		return filepath.Join(workingDirectory, utils.LocalConfigDirectoryName), nil
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}
}

// RenderDefaults returns the default configuration as YAML.
func RenderDefaults() ([]byte, error) {
	return yaml.Marshal(Defaults())
}

// InitializeConfiguration writes the rendered defaults into the target directory and returns the file path.
// An existing file is replaced only when Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	configurationDirectory, directoryErr := Directory(target, options.WorkingDirectory)
	if directoryErr != nil {
		return "", directoryErr
	}

	destinationPath := filepath.Join(configurationDirectory, utils.ConfigFileName)
	if _, statErr := os.Stat(destinationPath); statErr == nil && !options.Force {
		return "", fmt.Errorf("%w: %s", ErrConfigurationExists, destinationPath)
	}

	renderedDefaults, renderErr := RenderDefaults()
	if renderErr != nil {
		return "", fmt.Errorf("render default configuration: %w", renderErr)
	}
	if mkdirErr := os.MkdirAll(configurationDirectory, 0o755); mkdirErr != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, mkdirErr)
	}
	if writeErr := os.WriteFile(destinationPath, renderedDefaults, 0o600); writeErr != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeErr)
	}
	return destinationPath, nil
}
