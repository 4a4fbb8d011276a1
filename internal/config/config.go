package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

const (
	ledgerFileName    = "IgnoredPackageUpdates.json"
	optionsDirName    = "InstallationOptions"
	defaultConfigName = "engine"
	defaultConfigType = "yaml"
	defaultEnvPrefix  = "UNIGET"
)

type Config struct {
	DataDir                 string   `mapstructure:"data_dir"`
	LogLevel                string   `mapstructure:"log_level"`
	LogFormat               string   `mapstructure:"log_format"`
	LogFile                 string   `mapstructure:"log_file"`
	LogMaxSizeMB            int      `mapstructure:"log_max_size_mb"`
	LogMaxBackups           int      `mapstructure:"log_max_backups"`
	AppName                 string   `mapstructure:"app_name"`
	Locale                  string   `mapstructure:"locale"`
	EnabledManagers         []string `mapstructure:"enabled_managers"`
	SnapshotFile            string   `mapstructure:"snapshot_file"`
	GUIBridgeURL            string   `mapstructure:"gui_bridge_url"`
	DesktopNotifications    bool     `mapstructure:"desktop_notifications"`
	MaxConcurrentOperations int      `mapstructure:"max_concurrent_operations"`
	OperationQueueSize      int      `mapstructure:"operation_queue_size"`
}

func Default() *Config {
	return &Config{
		DataDir:                 dataDir(),
		LogLevel:                "info",
		LogFormat:               "text",
		LogMaxSizeMB:            10,
		LogMaxBackups:           3,
		AppName:                 "UniGetUI",
		Locale:                  "en-US",
		EnabledManagers:         []string{"Winget", "Chocolatey", "Scoop"},
		DesktopNotifications:    true,
		MaxConcurrentOperations: 1,
		OperationQueueSize:      64,
	}
}

// Load reads cfgFile (or engine.yaml from the default search path) on top of
// Default(). A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType(defaultConfigType)
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(defaultEnvPrefix)
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo writes cfg as YAML. An empty cfgFile targets the default location.
func SaveTo(cfg *Config, cfgFile string) error {
	v := viper.New()
	bindDefaults(v, cfg)

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir(), defaultConfigName+"."+defaultConfigType)
	}
	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	return v.WriteConfigAs(cfgPath)
}

// bindDefaults registers every key so AutomaticEnv can override values that
// are absent from the config file.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("locale", cfg.Locale)
	v.SetDefault("enabled_managers", cfg.EnabledManagers)
	v.SetDefault("snapshot_file", cfg.SnapshotFile)
	v.SetDefault("gui_bridge_url", cfg.GUIBridgeURL)
	v.SetDefault("desktop_notifications", cfg.DesktopNotifications)
	v.SetDefault("max_concurrent_operations", cfg.MaxConcurrentOperations)
	v.SetDefault("operation_queue_size", cfg.OperationQueueSize)
}

// LedgerPath is the fixed location of the ignored-updates ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, ledgerFileName)
}

// OptionsDir holds one installation-options file per package.
func (c *Config) OptionsDir() string {
	return filepath.Join(c.DataDir, optionsDirName)
}

// SettingsDir holds the boolean settings flag files.
func (c *Config) SettingsDir() string {
	return filepath.Join(c.DataDir, "Settings")
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "UniGetUI")
	}
	return "."
}

func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "UniGetUI")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", "UniGetUI")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "unigetui")
	}
	return filepath.Join(os.TempDir(), "unigetui")
}
