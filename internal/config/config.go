package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"flowsense/internal/logger"
)

type Config struct {
	Tracker TrackerConfig `mapstructure:"tracker"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Modes   ModesConfig   `mapstructure:"modes"`
	Storage StorageConfig `mapstructure:"storage"`
}

type TrackerConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Timeout            string `mapstructure:"timeout"`              // per-request timeout (e.g., "15s")
	WindowBucketPrefix string `mapstructure:"window_bucket_prefix"` // window-watcher bucket name prefix
	AFKBucketPrefix    string `mapstructure:"afk_bucket_prefix"`    // idle-watcher bucket name prefix
}

func (c *TrackerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c *TrackerConfig) GetTimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, fmt.Errorf("tracker timeout not configured")
	}
	return time.ParseDuration(c.Timeout)
}

type LLMConfig struct {
	Host        string  `mapstructure:"host"`
	Port        int     `mapstructure:"port"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`      // per-request timeout (e.g., "30s")
	MinSpacing  string  `mapstructure:"min_spacing"`  // minimum spacing between generation calls
	Temperature float64 `mapstructure:"temperature"`  // sampling temperature
	NumPredict  int     `mapstructure:"num_predict"`  // token generation cap
	TopP        float64 `mapstructure:"top_p"`        // nucleus sampling parameter
}

func (c *LLMConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c *LLMConfig) GetTimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, fmt.Errorf("llm timeout not configured")
	}
	return time.ParseDuration(c.Timeout)
}

func (c *LLMConfig) GetMinSpacingDuration() (time.Duration, error) {
	if c.MinSpacing == "" {
		return 0, fmt.Errorf("llm min_spacing not configured")
	}
	return time.ParseDuration(c.MinSpacing)
}

type ModesConfig struct {
	Default              string `mapstructure:"default"`               // mode used when no persisted mode exists
	ModeFile             string `mapstructure:"mode_file"`             // file persisting the active mode across restarts
	AnalysisInterval     string `mapstructure:"analysis_interval"`     // scheduler tick interval
	SyncInterval         string `mapstructure:"sync_interval"`         // activity sync / categorization interval
	DailyCron            string `mapstructure:"daily_cron"`            // daily rollup cron expression (with seconds)
	UserContext          string `mapstructure:"user_context"`          // free-form description of the user's work
	StudyFocus           string `mapstructure:"study_focus"`           // current study topic for study_buddy mode
	CoachTask            string `mapstructure:"coach_task"`            // current task for coach mode
	NotificationsEnabled bool   `mapstructure:"notifications_enabled"` // emit nudge notifications
}

func (c *ModesConfig) GetAnalysisIntervalDuration() (time.Duration, error) {
	if c.AnalysisInterval == "" {
		return 0, fmt.Errorf("analysis interval not configured")
	}
	return time.ParseDuration(c.AnalysisInterval)
}

func (c *ModesConfig) GetSyncIntervalDuration() (time.Duration, error) {
	if c.SyncInterval == "" {
		return 0, fmt.Errorf("sync interval not configured")
	}
	return time.ParseDuration(c.SyncInterval)
}

const (
	ModeGhost      = "ghost"
	ModeChill      = "chill"
	ModeStudyBuddy = "study_buddy"
	ModeCoach      = "coach"
)

// ValidModes are the behavior profiles the scheduler understands.
var ValidModes = []string{ModeGhost, ModeChill, ModeStudyBuddy, ModeCoach}

// IsValidMode reports whether name is a known behavior mode.
func IsValidMode(name string) bool {
	for _, m := range ValidModes {
		if m == name {
			return true
		}
	}
	return false
}

type StorageConfig struct {
	DBPath        string    `mapstructure:"db_path"`
	RetentionDays int       `mapstructure:"retention_days"`
	LogPath       string    `mapstructure:"log_path"`
	Log           LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`         // "debug", "info", "warn", "error"
	RotationTime string `mapstructure:"rotation_time"` // Time-based rotation interval (e.g., "1h", "24h")
	MaxSize      int    `mapstructure:"max_size"`      // Maximum size in megabytes before rotation
	MaxBackups   int    `mapstructure:"max_backups"`   // Maximum number of old log files to retain
	MaxAge       int    `mapstructure:"max_age"`       // Maximum number of days to retain old log files
	Compress     bool   `mapstructure:"compress"`      // Whether to compress rotated log files
}

// Validate checks the modes configuration
func (c *ModesConfig) Validate() error {
	if !IsValidMode(c.Default) {
		return fmt.Errorf("invalid mode '%s', must be one of %v", c.Default, ValidModes)
	}
	if _, err := c.GetAnalysisIntervalDuration(); err != nil {
		return fmt.Errorf("invalid analysis_interval: %w", err)
	}
	if _, err := c.GetSyncIntervalDuration(); err != nil {
		return fmt.Errorf("invalid sync_interval: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero values with defaults
func (c *ModesConfig) ApplyDefaults() {
	if c.Default == "" {
		c.Default = "coach"
	}
	if c.AnalysisInterval == "" {
		c.AnalysisInterval = "1m"
	}
	if c.SyncInterval == "" {
		c.SyncInterval = "5m"
	}
	if c.DailyCron == "" {
		c.DailyCron = "0 5 0 * * *"
	}
}

var globalConfig *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")

		// Get executable directory for default config location
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			viper.AddConfigPath(filepath.Join(execDir, "config"))
			viper.AddConfigPath(execDir)
		}

		// Also check current working directory (for development)
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")

		// Check user home directory (for user-specific config)
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".flowsense"))
		}
	}

	viper.SetDefault("tracker.host", "localhost")
	viper.SetDefault("tracker.port", 5600)
	viper.SetDefault("tracker.timeout", "15s")
	viper.SetDefault("tracker.window_bucket_prefix", "aw-watcher-window_")
	viper.SetDefault("tracker.afk_bucket_prefix", "aw-watcher-afk_")

	viper.SetDefault("llm.host", "localhost")
	viper.SetDefault("llm.port", 11434)
	viper.SetDefault("llm.model", "mistral")
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.min_spacing", "2s")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.num_predict", 300)
	viper.SetDefault("llm.top_p", 0.9)

	viper.SetDefault("modes.default", "coach")
	viper.SetDefault("modes.mode_file", "./data/mode")
	viper.SetDefault("modes.analysis_interval", "1m")
	viper.SetDefault("modes.sync_interval", "5m")
	viper.SetDefault("modes.daily_cron", "0 5 0 * * *")
	viper.SetDefault("modes.user_context", "")
	viper.SetDefault("modes.study_focus", "")
	viper.SetDefault("modes.coach_task", "")
	viper.SetDefault("modes.notifications_enabled", true)

	viper.SetDefault("storage.db_path", "./data/db/flowsense.db")
	viper.SetDefault("storage.retention_days", 30)
	viper.SetDefault("storage.log_path", "")
	viper.SetDefault("storage.log.level", "info")
	viper.SetDefault("storage.log.rotation_time", "24h")
	viper.SetDefault("storage.log.max_size", 100)
	viper.SetDefault("storage.log.max_backups", 3)
	viper.SetDefault("storage.log.max_age", 28)
	viper.SetDefault("storage.log.compress", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = os.Getenv("FLOWSENSE_MODEL")
	}

	cfg.Modes.ApplyDefaults()

	if err := cfg.Modes.Validate(); err != nil {
		// Invalid mode configuration falls back to defaults rather than aborting
		fmt.Fprintf(os.Stderr, "Warning: Invalid modes configuration: %v. Using default values.\n", err)
		cfg.Modes = ModesConfig{NotificationsEnabled: cfg.Modes.NotificationsEnabled}
		cfg.Modes.ApplyDefaults()
	}

	if err := normalizePaths(&cfg); err != nil {
		return nil, fmt.Errorf("failed to normalize paths: %w", err)
	}

	if err := initLogger(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

func (c *StorageConfig) EnsureDBPath() error {
	dir := filepath.Dir(c.DBPath)
	if dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func (c *ModesConfig) EnsureModeFilePath() error {
	dir := filepath.Dir(c.ModeFile)
	if dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func normalizePaths(cfg *Config) error {
	// Use executable directory as base for relative paths, fallback to working directory
	baseDir, err := getBaseDirectory()
	if err != nil {
		baseDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get base directory: %w", err)
		}
	}

	if cfg.Storage.DBPath != "" && !filepath.IsAbs(cfg.Storage.DBPath) {
		cfg.Storage.DBPath = filepath.Join(baseDir, cfg.Storage.DBPath)
	}

	if cfg.Modes.ModeFile != "" && !filepath.IsAbs(cfg.Modes.ModeFile) {
		cfg.Modes.ModeFile = filepath.Join(baseDir, cfg.Modes.ModeFile)
	}

	if cfg.Storage.LogPath == "" {
		cfg.Storage.LogPath = filepath.Join(baseDir, "flowsense.log")
	} else if !filepath.IsAbs(cfg.Storage.LogPath) {
		cfg.Storage.LogPath = filepath.Join(baseDir, cfg.Storage.LogPath)
	}

	// If LogPath is a directory, append default filename
	if info, err := os.Stat(cfg.Storage.LogPath); err == nil && info.IsDir() {
		cfg.Storage.LogPath = filepath.Join(cfg.Storage.LogPath, "flowsense.log")
	}

	return nil
}

func getBaseDirectory() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return os.Getwd()
	}

	// Resolve symlinks to get the actual executable path
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		realPath = execPath
	}

	execDir := filepath.Dir(realPath)
	execDirName := filepath.Base(execDir)

	// If executable is in bin/, walk up to a directory containing config/
	if execDirName == "bin" {
		currentDir := execDir
		for {
			parentDir := filepath.Dir(currentDir)
			if parentDir == currentDir {
				break
			}
			configDirPath := filepath.Join(currentDir, "config")
			if info, err := os.Stat(configDirPath); err == nil && info.IsDir() {
				return currentDir, nil
			}
			currentDir = parentDir
		}
	}

	return execDir, nil
}

// initLogger initializes the logger with storage config
func initLogger(storage *StorageConfig) error {
	return logger.Init(logger.LogConfig{
		Level:        storage.Log.Level,
		FilePath:     storage.LogPath,
		RotationTime: storage.Log.RotationTime,
		MaxSize:      storage.Log.MaxSize,
		MaxBackups:   storage.Log.MaxBackups,
		MaxAge:       storage.Log.MaxAge,
		Compress:     storage.Log.Compress,
	})
}
