package shared

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.json
var exampleConf []byte

const (
	DefaultConfigPath   = "spautofy.config"
	DefaultAddress      = "127.0.0.1"
	DefaultPort         = 3000
	DefaultDatabasePath = "spautofy.db"

	// Placeholders written by [CreateConfigFile]; they must be replaced before use.
	PlaceholderClientID     = "your_spotify_client_id"
	PlaceholderClientSecret = "your_spotify_client_secret"
)

// TokenStore names the persistence policy for refresh material.
type TokenStore string

const (
	TokenStoreNone    TokenStore = "none"
	TokenStoreSQLite  TokenStore = "sqlite"
	TokenStoreKeyring TokenStore = "keyring"
)

// Config is the persisted authorization configuration.
//
// Access and refresh tokens are never part of it; see [TokenStore] for where refresh material may live.
type Config struct {
	Address      string     `json:"address,omitempty" toml:"address,omitempty"`
	Port         uint16     `json:"port,omitempty" toml:"port,omitempty"`
	ClientID     string     `json:"client_id" toml:"client_id"`
	ClientSecret string     `json:"client_secret" toml:"client_secret"`
	TokenStore   TokenStore `json:"token_store,omitempty" toml:"token_store,omitempty"`
	Database     string     `json:"database,omitempty" toml:"database,omitempty"`
	LogLevel     string     `json:"log_level,omitempty" toml:"log_level,omitempty"`
}

// LoadConfig reads, decodes, default-fills and validates the configuration file at path.
//
// Files ending in .toml are decoded as TOML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrMissingConfig, path, err)
	}

	config, err := decodeConfig(path, data)
	if err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes a default-filled snapshot of config to path, in the format implied by its extension.
func SaveConfig(path string, config *Config) error {
	snapshot := config.Snapshot()

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(snapshot); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = json.MarshalIndent(snapshot, "", "  "); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = append(data, '\n')
	}

	// client_secret lives in this file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := json.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.ApplyDefaults()
	return &config
}

// CreateConfigFile writes the embedded example config to path. It refuses to overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if isTOML(path) {
		return SaveConfig(path, DefaultConfig())
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigUsage describes the expected file format, for display when loading fails.
func ConfigUsage(path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please create %q with the following format:\n\n", path)
	b.Write(exampleConf)
	b.WriteString("\nclient_id and client_secret are required (https://developer.spotify.com/dashboard).\n")
	fmt.Fprintf(&b, "address and port are optional (default %s:%d).\n", DefaultAddress, DefaultPort)
	b.WriteString("token_store is optional: none (default), sqlite or keyring.\n")
	return b.String()
}

// ApplyDefaults fills optional fields that were left empty.
func (c *Config) ApplyDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TokenStore == "" {
		c.TokenStore = TokenStoreNone
	}
	if c.TokenStore == TokenStoreSQLite && c.Database == "" {
		c.Database = DefaultDatabasePath
	}
}

// Validate checks the invariants required before a handshake may start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("%w: client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.ClientID == PlaceholderClientID || c.ClientSecret == PlaceholderClientSecret {
		return fmt.Errorf("%w: client_id and client_secret still hold the template placeholders", ErrMissingCredentials)
	}
	if net.ParseIP(c.Address) == nil {
		return fmt.Errorf("%w: address %q is not an IP address", ErrInvalidConfig, c.Address)
	}
	if c.Port == 0 {
		return fmt.Errorf("%w: port must be set", ErrInvalidConfig)
	}
	switch c.TokenStore {
	case TokenStoreNone, TokenStoreSQLite, TokenStoreKeyring:
	default:
		return fmt.Errorf("%w: unknown token_store %q", ErrInvalidConfig, c.TokenStore)
	}
	return nil
}

// Snapshot returns a default-filled copy of c suitable for persisting.
func (c *Config) Snapshot() *Config {
	snapshot := *c
	snapshot.ApplyDefaults()
	return &snapshot
}

// BindAddress is the host:port the callback listener binds to.
func (c *Config) BindAddress() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port)))
}

// BaseURL is the root URL of the callback listener.
func (c *Config) BaseURL() string {
	return "http://" + c.BindAddress()
}

// RedirectURI is derived from the bind address and is never stored.
func (c *Config) RedirectURI() string {
	return c.BaseURL() + "/callback"
}

func decodeConfig(path string, data []byte) (*Config, error) {
	var config Config
	if isTOML(path) {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
		}
		return &config, nil
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}
	return &config, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
