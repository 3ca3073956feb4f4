package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Address != DefaultAddress {
			t.Errorf("expected address %s, got %s", DefaultAddress, config.Address)
		}

		if config.Port != 3000 {
			t.Errorf("expected port 3000, got %d", config.Port)
		}

		if config.ClientID != PlaceholderClientID {
			t.Errorf("expected client_id %s, got %s", PlaceholderClientID, config.ClientID)
		}

		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected placeholders to fail validation, got %v", err)
		}

		if config.TokenStore != TokenStoreNone {
			t.Errorf("expected token store none, got %s", config.TokenStore)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("applies defaults and derives redirect URI", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigPath)
			writeFile(t, path, `{"client_id": "abc", "client_secret": "xyz"}`)

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.BindAddress() != "127.0.0.1:3000" {
				t.Errorf("expected bind address 127.0.0.1:3000, got %s", config.BindAddress())
			}

			if got := config.RedirectURI(); got != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected redirect URI http://127.0.0.1:3000/callback, got %s", got)
			}
		})

		t.Run("custom bind address", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigPath)
			writeFile(t, path, `{"address": "0.0.0.0", "port": 8888, "client_id": "abc", "client_secret": "xyz"}`)

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if got := config.RedirectURI(); got != "http://0.0.0.0:8888/callback" {
				t.Errorf("unexpected redirect URI %s", got)
			}
		})

		t.Run("TOML", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "spautofy.toml")
			writeFile(t, path, `client_id = "abc"
client_secret = "xyz"
port = 4000
token_store = "sqlite"
`)

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Port != 4000 {
				t.Errorf("expected port 4000, got %d", config.Port)
			}

			if config.Database != DefaultDatabasePath {
				t.Errorf("expected database %s, got %s", DefaultDatabasePath, config.Database)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.config"))
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("malformed file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigPath)
			writeFile(t, path, `{"client_id": `)

			if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("missing credentials", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigPath)
			writeFile(t, path, `{"client_id": "abc"}`)

			if _, err := LoadConfig(path); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("invalid values", func(t *testing.T) {
			tests := []struct {
				name    string
				content string
			}{
				{"hostname address", `{"address": "localhost", "client_id": "a", "client_secret": "b"}`},
				{"unknown token store", `{"token_store": "disk", "client_id": "a", "client_secret": "b"}`},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					path := filepath.Join(t.TempDir(), DefaultConfigPath)
					writeFile(t, path, tt.content)

					if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
				})
			}
		})
	})

	t.Run("SaveConfig", func(t *testing.T) {
		for _, name := range []string{DefaultConfigPath, "spautofy.toml"} {
			t.Run("round trip "+name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), name)
				original := &Config{ClientID: "abc", ClientSecret: "xyz"}

				if err := SaveConfig(path, original); err != nil {
					t.Fatalf("failed to save config: %v", err)
				}

				loaded, err := LoadConfig(path)
				if err != nil {
					t.Fatalf("failed to reload config: %v", err)
				}

				want := original.Snapshot()
				if *loaded != *want {
					t.Errorf("round trip mismatch: got %+v, want %+v", loaded, want)
				}
			})
		}

		t.Run("restricts permissions", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigPath)
			if err := SaveConfig(path, &Config{ClientID: "abc", ClientSecret: "xyz"}); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat failed: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected mode 0600, got %o", perm)
			}
		})

		t.Run("does not mutate input", func(t *testing.T) {
			config := &Config{ClientID: "abc", ClientSecret: "xyz"}
			if err := SaveConfig(filepath.Join(t.TempDir(), DefaultConfigPath), config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}
			if config.Address != "" || config.Port != 0 {
				t.Errorf("expected input config untouched, got %+v", config)
			}
		})
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigPath)

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("template placeholders must not load as credentials, got %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read created config: %v", err)
		}
		if !strings.Contains(string(data), PlaceholderClientID) {
			t.Errorf("created config should carry the client_id placeholder, got %s", data)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("ConfigUsage", func(t *testing.T) {
		usage := ConfigUsage("custom.config")
		for _, want := range []string{"custom.config", "client_id", "client_secret", "token_store"} {
			if !strings.Contains(usage, want) {
				t.Errorf("expected usage to mention %q", want)
			}
		}
	})
}
