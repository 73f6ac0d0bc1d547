package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tracklib.db" {
			t.Errorf("expected database path ./tracklib.db, got %s", config.Database.Path)
		}

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected sqlite driver, got %s", config.Database.Driver)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Catalog.MaxAttempts != 3 {
			t.Errorf("expected 3 catalog attempts, got %d", config.Catalog.MaxAttempts)
		}

		if config.Credentials.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("unexpected token url %s", config.Credentials.Spotify.TokenURL)
		}

		if config.Credentials.Spotify.ClientID != "" || config.Credentials.Spotify.ClientSecret != "" {
			t.Errorf("expected no default credentials, got %+v", config.Credentials.Spotify)
		}

		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected defaults to need credentials, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
driver = "mongo"
mongo_uri = "mongodb://db:27017"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.MongoURI != "mongodb://db:27017" {
			t.Errorf("expected mongo uri mongodb://db:27017, got %s", config.Database.MongoURI)
		}

		if config.Database.MongoDatabase != "tracklib" {
			t.Errorf("expected default mongo database to be kept, got %s", config.Database.MongoDatabase)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		tmpDir := t.TempDir()
		envPath := filepath.Join(tmpDir, ".env")
		if err := os.WriteFile(envPath, []byte("SPOTIFY_CLIENT_SECRET=from_dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		t.Setenv("SPOTIFY_CLIENT_ID", "from_env")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "")
		t.Setenv("PORT", "4000")

		// godotenv only fills unset variables
		os.Unsetenv("SPOTIFY_CLIENT_SECRET")

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "from_env" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "from_dotenv" {
			t.Errorf("expected client secret from .env, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port 4000, got %d", config.Server.Port)
		}
		os.Unsetenv("SPOTIFY_CLIENT_SECRET")
	})

	t.Run("ApplyEnv invalid port", func(t *testing.T) {
		t.Setenv("PORT", "abc")

		err := DefaultConfig().ApplyEnv("")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(c *Config)
			wantErr error
		}{
			{
				name:    "valid",
				mutate:  func(*Config) {},
				wantErr: nil,
			},
			{
				name:    "missing client id",
				mutate:  func(c *Config) { c.Credentials.Spotify.ClientID = "" },
				wantErr: ErrMissingCredentials,
			},
			{
				name:    "missing client secret",
				mutate:  func(c *Config) { c.Credentials.Spotify.ClientSecret = "" },
				wantErr: ErrMissingCredentials,
			},
			{
				name:    "unknown driver",
				mutate:  func(c *Config) { c.Database.Driver = "fauna" },
				wantErr: ErrInvalidConfig,
			},
			{
				name:    "zero attempts",
				mutate:  func(c *Config) { c.Catalog.MaxAttempts = 0 },
				wantErr: ErrInvalidConfig,
			},
			{
				name:    "sqlite without path",
				mutate:  func(c *Config) { c.Database.Path = "" },
				wantErr: ErrInvalidConfig,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Credentials.Spotify.ClientID = "id"
				config.Credentials.Spotify.ClientSecret = "secret"
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})
}
