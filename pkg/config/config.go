// Package config provides configuration management for zpkg. It handles
// loading, validating and saving the YAML configuration file holding the
// package sources, per-host credentials and general settings. Missing values
// fall back to XDG based defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/zpkg/pkg/database"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// Config represents the application configuration.
type Config struct {
	// Package sources in configuration order.
	Sources []*SourceConfig `yaml:"sources" validate:"dive,required"`

	// Credentials for package hosts that are not sources themselves.
	Credentials []*HostCredential `yaml:"credentials,omitempty" validate:"dive,required"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// SourceConfig represents a single package source.
type SourceConfig struct {
	Name string      `yaml:"name" validate:"required"`
	URL  string      `yaml:"url" validate:"required"`
	Auth *AuthConfig `yaml:"auth,omitempty"`
}

// HostCredential attaches authentication to every URL on a host.
type HostCredential struct {
	Host string      `yaml:"host" validate:"required,hostname_port|hostname"`
	Auth *AuthConfig `yaml:"auth" validate:"required"`
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir string        `yaml:"cache_dir,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// State settings
	StateDir     string `yaml:"state_dir,omitempty"`
	StateBackend string `yaml:"state_backend" validate:"oneof=json sqlite"`

	// Installation settings
	InstallDir string `yaml:"install_dir,omitempty"`
	LoadFile   string `yaml:"load_file,omitempty"`

	// Version selection
	DefaultBranches []string `yaml:"default_branches" validate:"min=1,dive,required"`

	// Network and concurrency settings
	HTTPTimeout      time.Duration `yaml:"http_timeout" validate:"gte=0"`
	OperationTimeout time.Duration `yaml:"operation_timeout" validate:"gte=0"`
	MaxConcurrent    int           `yaml:"max_concurrent" validate:"gte=1"`

	// Output settings
	OutputFormat string `yaml:"output_format" validate:"oneof=text json"`
	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default configuration values.
const (
	// DefaultCacheTTL is the age after which cached indexes are reported stale.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultOperationTimeout bounds a single package operation.
	DefaultOperationTimeout = 5 * time.Minute

	// DefaultMaxConcurrent is the default maximum number of concurrent operations.
	DefaultMaxConcurrent = 5

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	// LoadFileName is the default auto-load file name inside the data directory.
	LoadFileName = "packages.load"
)

// DefaultBranches are tried in order when a package has no version tags and
// the transport reports no default branch.
var DefaultBranches = []string{"main", "master"}

var validate = validator.New()

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, "cache")
	}
	dataDir, err := fsutil.GetDataDir()
	if err != nil {
		dataDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Sources: []*SourceConfig{},
		Settings: Settings{
			CacheDir:         cacheDir,
			CacheTTL:         DefaultCacheTTL,
			StateDir:         filepath.Join(dataDir, "state"),
			StateBackend:     database.BackendJSON,
			InstallDir:       filepath.Join(dataDir, "packages"),
			LoadFile:         filepath.Join(dataDir, LoadFileName),
			DefaultBranches:  append([]string(nil), DefaultBranches...),
			HTTPTimeout:      DefaultHTTPTimeout,
			OperationTimeout: DefaultOperationTimeout,
			MaxConcurrent:    DefaultMaxConcurrent,
			OutputFormat:     "text",
			LogLevel:         "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig atomically writes the configuration to path. The file may hold
// credentials and is not world readable.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeSecure); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	if err := validateSources(c.Sources); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}
	for _, src := range c.Sources {
		if err := src.Auth.validate(); err != nil {
			return errors.Wrapf(errors.ErrConfigValidation, "source %s: %v", src.Name, err)
		}
	}
	for _, cred := range c.Credentials {
		if err := cred.Auth.validate(); err != nil {
			return errors.Wrapf(errors.ErrConfigValidation, "host %s: %v", cred.Host, err)
		}
	}
	return nil
}

func validateSources(sources []*SourceConfig) error {
	names := make(map[string]bool, len(sources))
	for _, src := range sources {
		if names[src.Name] {
			return errors.Wrap(errors.ErrSourceExists, src.Name)
		}
		names[src.Name] = true
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// AddSource appends a source. A source with the same name is rejected.
func (c *Config) AddSource(name, url string) error {
	if c.GetSource(name) != nil {
		return errors.Wrap(errors.ErrSourceExists, name)
	}
	c.Sources = append(c.Sources, &SourceConfig{Name: name, URL: url})
	return nil
}

// RemoveSource removes a source from the configuration.
func (c *Config) RemoveSource(name string) bool {
	for i, src := range c.Sources {
		if src.Name == name {
			c.Sources = append(c.Sources[:i], c.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// GetSource gets a source configuration by name.
func (c *Config) GetSource(name string) *SourceConfig {
	for _, src := range c.Sources {
		if src.Name == name {
			return src
		}
	}
	return nil
}

// PackageSources returns the configured sources in configuration order.
func (c *Config) PackageSources() []model.PackageSource {
	out := make([]model.PackageSource, 0, len(c.Sources))
	for _, src := range c.Sources {
		out = append(out, model.PackageSource{Name: src.Name, Location: src.URL})
	}
	return out
}

// GetIndexDir returns the path to the index cache directory.
func (c *Config) GetIndexDir() string {
	return filepath.Join(c.Settings.CacheDir, fsutil.IndexCacheDirName)
}

// GetStagingDir returns the path to the staging directory.
func (c *Config) GetStagingDir() string {
	return filepath.Join(c.Settings.CacheDir, fsutil.StagingDirName)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	s := &c.Settings

	if s.CacheDir == "" {
		s.CacheDir = defaults.Settings.CacheDir
	}
	if s.CacheTTL == 0 {
		s.CacheTTL = defaults.Settings.CacheTTL
	}
	if s.StateDir == "" {
		s.StateDir = defaults.Settings.StateDir
	}
	if s.StateBackend == "" {
		s.StateBackend = defaults.Settings.StateBackend
	}
	if s.InstallDir == "" {
		s.InstallDir = defaults.Settings.InstallDir
	}
	if s.LoadFile == "" {
		s.LoadFile = defaults.Settings.LoadFile
	}
	if len(s.DefaultBranches) == 0 {
		s.DefaultBranches = defaults.Settings.DefaultBranches
	}
	if s.HTTPTimeout == 0 {
		s.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if s.OperationTimeout == 0 {
		s.OperationTimeout = defaults.Settings.OperationTimeout
	}
	if s.MaxConcurrent == 0 {
		s.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if s.OutputFormat == "" {
		s.OutputFormat = defaults.Settings.OutputFormat
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	if s.LogLevel == "" {
		s.LogLevel = defaults.Settings.LogLevel
	}
	if c.Sources == nil {
		c.Sources = []*SourceConfig{}
	}
}
