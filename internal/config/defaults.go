package config

const (
	defaultConfigPath       = "~/.config/datapacks/config.toml"
	defaultStateDir         = "~/.local/share/datapacks"
	defaultLogDir           = "~/.local/share/datapacks/logs"
	defaultOutputDir        = "~/.local/share/datapacks/batches"
	defaultMaxFileSize      = 200000
	defaultMaxDeployCount   = 200000
	defaultMaxParallel      = 1
	defaultDiscoveryWorkers = 4
	defaultSassBinary       = "sass"
	defaultCompilerTimeout  = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultLogMaxSizeMB     = 50
	projectPathEnv          = "DATAPACKS_PROJECT_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Build: Build{
			MaxFileSize:        defaultMaxFileSize,
			MaxDeployCount:     defaultMaxDeployCount,
			DefaultMaxParallel: defaultMaxParallel,
			DiscoveryWorkers:   defaultDiscoveryWorkers,
		},
		Compiler: Compiler{
			SassBinary:     defaultSassBinary,
			TimeoutSeconds: defaultCompilerTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
		},
	}
}
