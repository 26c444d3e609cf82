package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultJSONName       = "todos.json"
	DefaultDBName         = "todos.db"
	DefaultBackupDir      = "backups"
	DefaultLogFile        = "protask.log"
	DefaultMaxBackups     = 10
	DefaultAutosave       = time.Minute

	appDir    = "protask"
	envConfig = "PROTASK_CONFIG"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	AddSub       string `toml:"add_sub"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Toggle       string `toml:"toggle"`
	Delete       string `toml:"delete"`
	Detail       string `toml:"detail"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	Edit         string `toml:"edit"`
	Rename       string `toml:"rename"`
	Duplicate    string `toml:"duplicate"`
	PriorityUp   string `toml:"priority_up"`
	PriorityDown string `toml:"priority_down"`
	DueForward   string `toml:"due_forward"`
	DueBack      string `toml:"due_back"`
	Filter       string `toml:"filter"`
	Sort         string `toml:"sort"`
	Search       string `toml:"search"`
	Save         string `toml:"save"`
	Backup       string `toml:"backup"`
	Theme        string `toml:"theme"`
}

type Config struct {
	DataPath         string `toml:"data_path"`
	Backend          string `toml:"backend"`
	BackupDir        string `toml:"backup_dir"`
	MaxBackups       int    `toml:"max_backups"`
	AutosaveInterval string `toml:"autosave_interval"`
	DefaultFilter    string `toml:"default_filter"`
	DefaultSort      string `toml:"default_sort"`
	Theme            string `toml:"theme"`
	LogLevel         string `toml:"log_level"`
	LogFile          string `toml:"log_file"`
	Keys             Keymap `toml:"keys"`
}

// ResolveConfigPath picks the config file location: $PROTASK_CONFIG, then the
// XDG config dir, then ~/.config, then the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir, DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", appDir, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the config at path, writing the defaults first when the
// file does not exist. Relative paths in the result are resolved against the
// directory holding the config file.
func LoadOrCreate(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return cfg, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Update applies fn to the stored config and writes it back, leaving paths
// as the user wrote them.
func Update(path string, fn func(*Config)) error {
	cfg, err := load(path)
	if err != nil {
		return err
	}
	fn(&cfg)
	return write(path, cfg)
}

func load(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Autosave is the parsed autosave interval. Zero disables autosave; an
// unparsable value falls back to the default.
func (c Config) Autosave() time.Duration {
	v := strings.TrimSpace(c.AutosaveInterval)
	if v == "" {
		return DefaultAutosave
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return DefaultAutosave
	}
	return d
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.DataPath == "" {
		c.DataPath = DefaultJSONName
		if c.Backend == "sqlite" {
			c.DataPath = DefaultDBName
		}
	}
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = def.MaxBackups
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		if strings.HasPrefix(p, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				return filepath.Join(home, p[2:])
			}
		}
		return filepath.Join(base, p)
	}
	c.DataPath = abs(c.DataPath)
	c.BackupDir = abs(c.BackupDir)
	c.LogFile = abs(c.LogFile)
}

func defaultConfig() Config {
	return Config{
		DataPath:         DefaultJSONName,
		Backend:          "json",
		BackupDir:        DefaultBackupDir,
		MaxBackups:       DefaultMaxBackups,
		AutosaveInterval: DefaultAutosave.String(),
		DefaultFilter:    "All",
		DefaultSort:      "Due Date",
		Theme:            "superhero",
		LogLevel:         "info",
		LogFile:          DefaultLogFile,
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			AddSub:       "A",
			Up:           "k",
			Down:         "j",
			Toggle:       " ",
			Delete:       "d",
			Detail:       "i",
			Confirm:      "enter",
			Cancel:       "esc",
			Edit:         "e",
			Rename:       "r",
			Duplicate:    "c",
			PriorityUp:   "+",
			PriorityDown: "-",
			DueForward:   "]",
			DueBack:      "[",
			Filter:       "f",
			Sort:         "s",
			Search:       "/",
			Save:         "w",
			Backup:       "b",
			Theme:        "t",
		},
	}
}
