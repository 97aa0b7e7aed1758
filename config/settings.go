package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Environment variables that override the settings file.
const (
	EnvBackendURL = "WATCHWISE_BACKEND_URL"
	EnvAPIToken   = "WATCHWISE_API_TOKEN"
	EnvPort       = "WATCHWISE_PORT"
)

var ErrPathNotSet = errors.New("config path not set")

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server       ServerSettings       `json:"server" toml:"server"`
	Backend      BackendSettings      `json:"backend" toml:"backend"`
	Availability AvailabilitySettings `json:"availability" toml:"availability"`
	Dashboard    DashboardSettings    `json:"dashboard" toml:"dashboard"`
	Scheduler    SchedulerSettings    `json:"scheduler" toml:"scheduler"`
	Log          LogConfig            `json:"log" toml:"log"`
}

type ServerSettings struct {
	Host string `json:"host" toml:"host"`
	Port int    `json:"port" toml:"port" validate:"min=1,max=65535"`
}

// BackendSettings points at the remote watchlist backend.
type BackendSettings struct {
	URL            string `json:"url" toml:"url" validate:"required,url"`
	Token          string `json:"token" toml:"token"`
	TimeoutSeconds int    `json:"timeoutSeconds" toml:"timeoutSeconds" validate:"min=1,max=300"`
	RetryAttempts  uint   `json:"retryAttempts" toml:"retryAttempts" validate:"min=1,max=10"`
	RetryDelayMs   int    `json:"retryDelayMs" toml:"retryDelayMs" validate:"min=0,max=60000"`
}

// Timeout returns the per-request timeout.
func (b BackendSettings) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base delay between read retries.
func (b BackendSettings) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelayMs) * time.Millisecond
}

// AvailabilitySettings controls availability lookups. An empty region lets
// the backend pick one.
type AvailabilitySettings struct {
	Region string `json:"region" toml:"region" validate:"omitempty,len=2,uppercase"`
}

type DashboardSettings struct {
	HeadlineSize int `json:"headlineSize" toml:"headlineSize" validate:"min=1,max=50"`
}

// SchedulerSettings controls the periodic silent resync.
type SchedulerSettings struct {
	Enabled         bool `json:"enabled" toml:"enabled"`
	IntervalSeconds int  `json:"intervalSeconds" toml:"intervalSeconds" validate:"min=0"`
}

// Interval returns the resync interval.
func (s SchedulerSettings) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LogConfig represents logging configuration
type LogConfig struct {
	File       string `json:"file" toml:"file"`
	Level      string `json:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	MaxSize    int    `json:"maxSize" toml:"maxSize"`
	MaxAge     int    `json:"maxAge" toml:"maxAge"`
	MaxBackups int    `json:"maxBackups" toml:"maxBackups"`
	Compress   bool   `json:"compress" toml:"compress"`
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7788},
		Backend: BackendSettings{
			URL:            "http://localhost:3000",
			TimeoutSeconds: 15,
			RetryAttempts:  3,
			RetryDelayMs:   300,
		},
		Availability: AvailabilitySettings{Region: ""},
		Dashboard:    DashboardSettings{HeadlineSize: 5},
		Scheduler:    SchedulerSettings{Enabled: true, IntervalSeconds: 300},
		Log: LogConfig{
			File:       "cache/logs/watchwise.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
	}
}

// Manager loads and persists settings to a JSON or TOML file.
type Manager struct {
	fs   afero.Fs
	path string
}

func NewManager(configPath string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), configPath)
}

// NewManagerWithFs creates a manager on the given filesystem.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

// Path returns the settings file path.
func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) isTOML() bool {
	return strings.EqualFold(filepath.Ext(m.path), ".toml")
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads the settings file or creates it with defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, ErrPathNotSet
	}
	if _, err := m.fs.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if m.isTOML() {
		err = toml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", m.path, err)
	}

	backfill(&s)
	return s, nil
}

// backfill fills settings introduced after the file was written.
func backfill(s *Settings) {
	defaults := DefaultSettings()
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if strings.TrimSpace(s.Backend.URL) == "" {
		s.Backend.URL = defaults.Backend.URL
	}
	if s.Backend.TimeoutSeconds == 0 {
		s.Backend.TimeoutSeconds = defaults.Backend.TimeoutSeconds
	}
	if s.Backend.RetryAttempts == 0 {
		s.Backend.RetryAttempts = defaults.Backend.RetryAttempts
	}
	if s.Dashboard.HeadlineSize == 0 {
		s.Dashboard.HeadlineSize = defaults.Dashboard.HeadlineSize
	}
	if s.Scheduler.IntervalSeconds == 0 {
		s.Scheduler.IntervalSeconds = defaults.Scheduler.IntervalSeconds
	}
	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = defaults.Log.Level
	}
	s.Availability.Region = strings.ToUpper(strings.TrimSpace(s.Availability.Region))
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return ErrPathNotSet
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := m.fs.Create(tmp)
	if err != nil {
		return err
	}
	if m.isTOML() {
		err = toml.NewEncoder(f).Encode(s)
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(s)
	}
	if err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(tmp)
		return err
	}
	return m.fs.Rename(tmp, m.path)
}

// LoadDotEnv loads an optional .env file into the process environment.
// Variables already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. A nil getenv reads the
// process environment.
func ApplyEnv(s *Settings, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvBackendURL)); v != "" {
		s.Backend.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvAPIToken)); v != "" {
		s.Backend.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		s.Server.Port = port
	}
	return nil
}

var validate = validator.New()

// Validate checks the settings for values the agent cannot run with.
func Validate(s Settings) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
