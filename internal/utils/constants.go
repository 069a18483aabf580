package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".gitree"
	// LocalConfigDirectoryName is the directory under the working directory holding the project configuration.
	LocalConfigDirectoryName = ".gitree"
	// ConfigFileBaseName is the configuration file name without extension.
	ConfigFileBaseName = "config"
	// ConfigFileName is the configuration file name written by --init-config.
	ConfigFileName = ConfigFileBaseName + ".yaml"

	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal application errors.
	ApplicationExecutionFailedMessage = "gitree failed"
)
