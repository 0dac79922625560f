package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saveshift/saveshift/pkg/core"
)

// Config represents the complete configuration
type Config struct {
	Hosts    HostsConfig    `json:"hosts" yaml:"hosts"`
	Library  LibraryConfig  `json:"library" yaml:"library"`
	Transfer TransferConfig `json:"transfer" yaml:"transfer"`
	SSH      SSHConfig      `json:"ssh" yaml:"ssh"`
	Output   OutputConfig   `json:"output" yaml:"output"`
}

// HostsConfig contains connection defaults applied to both hosts
type HostsConfig struct {
	User           string `json:"user" yaml:"user"`                       // login user on both hosts (default: deck)
	Port           int    `json:"port" yaml:"port"`                       // SSH port (default: 22)
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"` // connection timeout (default: 15)
}

// LibraryConfig locates the game library on the hosts
type LibraryConfig struct {
	Base       string   `json:"base" yaml:"base"`             // library base path (default: /home/deck/.local/share/Steam)
	AppID      int      `json:"app_id" yaml:"app_id"`         // application id, required
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"` // save-file extensions override
}

// TransferConfig contains migration behavior settings
type TransferConfig struct {
	SourceUser     string `json:"source_user,omitempty" yaml:"source_user,omitempty"`
	DestUser       string `json:"dest_user,omitempty" yaml:"dest_user,omitempty"`
	DryRun         bool   `json:"dry_run" yaml:"dry_run"`
	Backup         bool   `json:"backup" yaml:"backup"`
	NonInteractive bool   `json:"non_interactive" yaml:"non_interactive"`
	CopyChannel    string `json:"copy_channel" yaml:"copy_channel"`       // sftp, stream
	OnMissingDest  string `json:"on_missing_dest" yaml:"on_missing_dest"` // fail, provision
}

// SSHConfig contains authentication and host-key settings
type SSHConfig struct {
	KeyPath         string `json:"key,omitempty" yaml:"key,omitempty"`
	PasswordEnv     string `json:"password_env,omitempty" yaml:"password_env,omitempty"`
	KnownHostsPath  string `json:"known_hosts,omitempty" yaml:"known_hosts,omitempty"`
	InsecureHostKey bool   `json:"insecure_host_key" yaml:"insecure_host_key"`
}

// OutputConfig controls report formatting
type OutputConfig struct {
	Format   string `json:"format" yaml:"format"`     // text, json, yaml, csv
	Progress string `json:"progress" yaml:"progress"` // simple, bar, json, none
}

// LoadConfig loads configuration from file, stdin, or inline string
func LoadConfig(input string) (*Config, error) {
	var data []byte
	var err error

	switch {
	case input == "-":
		// Read from stdin
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	case strings.HasPrefix(input, "{") || strings.HasPrefix(input, "---"):
		// Inline JSON/YAML string
		data = []byte(input)
	default:
		// File path
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", input, err)
		}
	}

	return ParseAuto(data)
}

// ParseAuto auto-detects format (JSON or YAML) and parses
func ParseAuto(data []byte) (*Config, error) {
	trimmed := strings.TrimSpace(string(data))

	if len(trimmed) == 0 {
		return nil, &core.ConfigError{Reason: "empty config data"}
	}

	var cfg Config

	// Try JSON first (starts with { or [)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal([]byte(trimmed), &cfg); err == nil {
			return &cfg, nil
		}
	}

	// Try YAML
	if err := yaml.Unmarshal([]byte(trimmed), &cfg); err == nil {
		return &cfg, nil
	}

	return nil, &core.ConfigError{Reason: "couldn't parse as JSON or YAML"}
}

// FromEnv loads configuration from environment variables
func FromEnv() *Config {
	return &Config{
		Hosts: HostsConfig{
			User:           os.Getenv("SAVESHIFT_USER"),
			Port:           getEnvInt("SAVESHIFT_PORT", 0),
			TimeoutSeconds: getEnvInt("SAVESHIFT_TIMEOUT", 0),
		},
		Library: LibraryConfig{
			Base:  os.Getenv("SAVESHIFT_LIBRARY"),
			AppID: getEnvInt("SAVESHIFT_APP", 0),
		},
		Transfer: TransferConfig{
			SourceUser:     os.Getenv("SAVESHIFT_SOURCE_USER"),
			DestUser:       os.Getenv("SAVESHIFT_DEST_USER"),
			DryRun:         getEnvBool("SAVESHIFT_DRY_RUN", false),
			Backup:         getEnvBool("SAVESHIFT_BACKUP", false),
			NonInteractive: getEnvBool("SAVESHIFT_NON_INTERACTIVE", false),
			CopyChannel:    os.Getenv("SAVESHIFT_COPY_CHANNEL"),
			OnMissingDest:  os.Getenv("SAVESHIFT_ON_MISSING_DEST"),
		},
		SSH: SSHConfig{
			KeyPath:        os.Getenv("SAVESHIFT_KEY"),
			PasswordEnv:    os.Getenv("SAVESHIFT_PASSWORD_ENV"),
			KnownHostsPath: os.Getenv("SAVESHIFT_KNOWN_HOSTS"),
		},
		Output: OutputConfig{
			Format:   os.Getenv("SAVESHIFT_OUTPUT"),
			Progress: os.Getenv("SAVESHIFT_PROGRESS"),
		},
	}
}

// Merge combines multiple configs with priority (earlier = higher priority)
func Merge(configs ...*Config) *Config {
	result := &Config{}

	for i := len(configs) - 1; i >= 0; i-- {
		cfg := configs[i]
		if cfg == nil {
			continue
		}

		// Merge host defaults
		if cfg.Hosts.User != "" {
			result.Hosts.User = cfg.Hosts.User
		}
		if cfg.Hosts.Port > 0 {
			result.Hosts.Port = cfg.Hosts.Port
		}
		if cfg.Hosts.TimeoutSeconds > 0 {
			result.Hosts.TimeoutSeconds = cfg.Hosts.TimeoutSeconds
		}

		// Merge library
		if cfg.Library.Base != "" {
			result.Library.Base = cfg.Library.Base
		}
		if cfg.Library.AppID > 0 {
			result.Library.AppID = cfg.Library.AppID
		}
		if len(cfg.Library.Extensions) > 0 {
			result.Library.Extensions = cfg.Library.Extensions
		}

		// Merge transfer
		if cfg.Transfer.SourceUser != "" {
			result.Transfer.SourceUser = cfg.Transfer.SourceUser
		}
		if cfg.Transfer.DestUser != "" {
			result.Transfer.DestUser = cfg.Transfer.DestUser
		}
		if cfg.Transfer.CopyChannel != "" {
			result.Transfer.CopyChannel = cfg.Transfer.CopyChannel
		}
		if cfg.Transfer.OnMissingDest != "" {
			result.Transfer.OnMissingDest = cfg.Transfer.OnMissingDest
		}
		result.Transfer.DryRun = result.Transfer.DryRun || cfg.Transfer.DryRun
		result.Transfer.Backup = result.Transfer.Backup || cfg.Transfer.Backup
		result.Transfer.NonInteractive = result.Transfer.NonInteractive || cfg.Transfer.NonInteractive

		// Merge SSH
		if cfg.SSH.KeyPath != "" {
			result.SSH.KeyPath = cfg.SSH.KeyPath
		}
		if cfg.SSH.PasswordEnv != "" {
			result.SSH.PasswordEnv = cfg.SSH.PasswordEnv
		}
		if cfg.SSH.KnownHostsPath != "" {
			result.SSH.KnownHostsPath = cfg.SSH.KnownHostsPath
		}
		result.SSH.InsecureHostKey = result.SSH.InsecureHostKey || cfg.SSH.InsecureHostKey

		// Merge output
		if cfg.Output.Format != "" {
			result.Output.Format = cfg.Output.Format
		}
		if cfg.Output.Progress != "" {
			result.Output.Progress = cfg.Output.Progress
		}
	}

	// Set defaults if not set
	if result.Hosts.User == "" {
		result.Hosts.User = "deck"
	}
	if result.Hosts.Port == 0 {
		result.Hosts.Port = 22
	}
	if result.Hosts.TimeoutSeconds == 0 {
		result.Hosts.TimeoutSeconds = 15
	}
	if result.Library.Base == "" {
		result.Library.Base = "/home/deck/.local/share/Steam"
	}
	if result.Transfer.CopyChannel == "" {
		result.Transfer.CopyChannel = "sftp"
	}
	if result.Transfer.OnMissingDest == "" {
		result.Transfer.OnMissingDest = string(core.MissingDestFail)
	}
	if result.Output.Format == "" {
		result.Output.Format = "text"
	}
	if result.Output.Progress == "" {
		result.Output.Progress = "simple"
	}

	return result
}

// Validate checks field values after merging. It does not fill defaults;
// call Merge first.
func (c *Config) Validate() error {
	if c.Library.AppID <= 0 {
		return &core.ConfigError{Reason: "library app_id is required and must be positive"}
	}
	switch c.Transfer.CopyChannel {
	case "sftp", "stream":
	default:
		return &core.ConfigError{Reason: fmt.Sprintf("unknown copy channel %q (want sftp or stream)", c.Transfer.CopyChannel)}
	}
	switch core.MissingDestPolicy(c.Transfer.OnMissingDest) {
	case core.MissingDestFail, core.MissingDestProvision:
	default:
		return &core.ConfigError{Reason: fmt.Sprintf("unknown on_missing_dest policy %q (want fail or provision)", c.Transfer.OnMissingDest)}
	}
	switch c.Output.Format {
	case "text", "json", "yaml", "csv":
	default:
		return &core.ConfigError{Reason: fmt.Sprintf("unknown output format %q", c.Output.Format)}
	}
	switch c.Output.Progress {
	case "simple", "bar", "json", "none":
	default:
		return &core.ConfigError{Reason: fmt.Sprintf("unknown progress style %q", c.Output.Progress)}
	}
	return nil
}

// Helper functions for environment variables
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
