// Package config loads and saves user settings with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/spf13/viper"
)

const (
	AppDir   = "timesheet"
	FileName = "settings.json"
)

// Keys understood by the settings file.
const (
	KeyDataFolder           = "data_folder"
	KeyTimesheetPath        = "timesheet_path"
	KeyTimeblocksPath       = "timeblocks_path"
	KeyBackupFolder         = "backup_folder"
	KeyBackupRetentionDays  = "backup_retention_days"
	KeyRetroactiveTracking  = "retroactive_tracking"
	KeyRetroactiveTolerance = "retroactive_tolerance"
	KeyMultitasking         = "multitasking"
	KeyShowSeconds          = "show_seconds"
	KeyShowArchived         = "show_archived_projects"
	KeyGridColumns          = "grid_columns"
	KeyDefaultTimeRange     = "default_time_range"
	KeySortMode             = "sort_mode"
	KeyCategoryFilter       = "category_filter"
	KeyICSCalendars         = "ics_calendars"
	KeyAutosaveInterval     = "autosave_interval"
	KeyPollInterval         = "poll_interval"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"
)

var (
	TimeRanges = []string{"day", "week", "month", "year", "custom"}
	SortModes  = []string{"manual", "category", "name", "color", "recent"}
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Settings struct {
	DataFolder           string        `mapstructure:"data_folder"`
	TimesheetPath        string        `mapstructure:"timesheet_path"`
	TimeblocksPath       string        `mapstructure:"timeblocks_path"`
	BackupFolder         string        `mapstructure:"backup_folder"`
	BackupRetentionDays  int           `mapstructure:"backup_retention_days"`
	RetroactiveTracking  bool          `mapstructure:"retroactive_tracking"`
	RetroactiveTolerance time.Duration `mapstructure:"retroactive_tolerance"`
	Multitasking         bool          `mapstructure:"multitasking"`
	ShowSeconds          bool          `mapstructure:"show_seconds"`
	ShowArchivedProjects bool          `mapstructure:"show_archived_projects"`
	GridColumns          int           `mapstructure:"grid_columns"`
	DefaultTimeRange     string        `mapstructure:"default_time_range"`
	SortMode             string        `mapstructure:"sort_mode"`
	CategoryFilter       []int         `mapstructure:"category_filter"`
	ICSCalendars         []string      `mapstructure:"ics_calendars"`
	AutosaveInterval     time.Duration `mapstructure:"autosave_interval"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	Log                  LogSettings   `mapstructure:"log"`
}

// Validate rejects values the rest of the program cannot work with.
func (s Settings) Validate() error {
	var errs []error
	if !slices.Contains(TimeRanges, s.DefaultTimeRange) {
		errs = append(errs, fmt.Errorf("%s: unknown time range %q", KeyDefaultTimeRange, s.DefaultTimeRange))
	}
	if !slices.Contains(SortModes, s.SortMode) {
		errs = append(errs, fmt.Errorf("%s: unknown sort mode %q", KeySortMode, s.SortMode))
	}
	if s.AutosaveInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyAutosaveInterval))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyPollInterval))
	}
	if s.RetroactiveTolerance < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyRetroactiveTolerance))
	}
	if s.BackupRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyBackupRetentionDays))
	}
	if s.GridColumns < 1 {
		errs = append(errs, fmt.Errorf("%s: must be at least 1", KeyGridColumns))
	}
	if !slices.Contains(LogLevels, s.Log.Level) {
		errs = append(errs, fmt.Errorf("%s: unknown level %q", KeyLogLevel, s.Log.Level))
	}
	if !slices.Contains(LogFormats, s.Log.Format) {
		errs = append(errs, fmt.Errorf("%s: unknown format %q", KeyLogFormat, s.Log.Format))
	}
	return errors.Join(errs...)
}

// TimesheetFile resolves the timesheet path against the data folder.
func (s Settings) TimesheetFile() string { return s.resolve(s.TimesheetPath) }

func (s Settings) TimeblocksFile() string { return s.resolve(s.TimeblocksPath) }

func (s Settings) BackupDir() string { return s.resolve(s.BackupFolder) }

func (s Settings) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataFolder, p)
}

// Config wraps the viper instance backing the settings file.
type Config struct {
	v    *viper.Viper
	path string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataFolder, "./data")
	v.SetDefault(KeyTimesheetPath, "timesheet.csv")
	v.SetDefault(KeyTimeblocksPath, "timeblocks.csv")
	v.SetDefault(KeyBackupFolder, ".timebackups")
	v.SetDefault(KeyBackupRetentionDays, 5)
	v.SetDefault(KeyRetroactiveTracking, false)
	v.SetDefault(KeyRetroactiveTolerance, "0s")
	v.SetDefault(KeyMultitasking, false)
	v.SetDefault(KeyShowSeconds, true)
	v.SetDefault(KeyShowArchived, false)
	v.SetDefault(KeyGridColumns, 3)
	v.SetDefault(KeyDefaultTimeRange, "week")
	v.SetDefault(KeySortMode, "manual")
	v.SetDefault(KeyCategoryFilter, []int{})
	v.SetDefault(KeyICSCalendars, []string{})
	v.SetDefault(KeyAutosaveInterval, "5m")
	v.SetDefault(KeyPollInterval, "30s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// DefaultPath returns $XDG_CONFIG_HOME/timesheet/settings.json, falling
// back to the platform config directory under the home folder.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting user home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			configHome = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configHome = filepath.Join(homeDir, ".config")
		}
	}
	return filepath.Join(configHome, AppDir, FileName), nil
}

// Load reads the settings file at path, creating it with defaults when it
// does not exist. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("error creating config file: %w", err)
		}
	}
	return &Config{v: v, path: path}, nil
}

func (c *Config) Path() string { return c.path }

// Viper exposes the underlying instance for flag binding.
func (c *Config) Viper() *viper.Viper { return c.v }

// Settings decodes and validates the current values.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (c *Config) Set(key string, value any) { c.v.Set(key, value) }

// Update applies s to the instance and writes the file.
func (c *Config) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.v.Set(KeyDataFolder, s.DataFolder)
	c.v.Set(KeyTimesheetPath, s.TimesheetPath)
	c.v.Set(KeyTimeblocksPath, s.TimeblocksPath)
	c.v.Set(KeyBackupFolder, s.BackupFolder)
	c.v.Set(KeyBackupRetentionDays, s.BackupRetentionDays)
	c.v.Set(KeyRetroactiveTracking, s.RetroactiveTracking)
	c.v.Set(KeyRetroactiveTolerance, s.RetroactiveTolerance.String())
	c.v.Set(KeyMultitasking, s.Multitasking)
	c.v.Set(KeyShowSeconds, s.ShowSeconds)
	c.v.Set(KeyShowArchived, s.ShowArchivedProjects)
	c.v.Set(KeyGridColumns, s.GridColumns)
	c.v.Set(KeyDefaultTimeRange, s.DefaultTimeRange)
	c.v.Set(KeySortMode, s.SortMode)
	c.v.Set(KeyCategoryFilter, s.CategoryFilter)
	c.v.Set(KeyICSCalendars, s.ICSCalendars)
	c.v.Set(KeyAutosaveInterval, s.AutosaveInterval.String())
	c.v.Set(KeyPollInterval, s.PollInterval.String())
	c.v.Set(KeyLogLevel, s.Log.Level)
	c.v.Set(KeyLogFormat, s.Log.Format)
	return c.Save()
}

func (c *Config) Save() error {
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
