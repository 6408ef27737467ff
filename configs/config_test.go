package configs

import (
	"os"
	"testing"
	"time"
)

// setupTestEnv sets up required environment variables for config unmarshaling
func setupTestEnv() {
	os.Setenv("APP_ENV", "test")
	os.Setenv("LINE_CHANNEL_SECRET", "line-secret")
	os.Setenv("LINE_CHANNEL_TOKEN", "line-token")
	os.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	os.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	os.Setenv("AUTH_STATE_SECRET", "state-secret")
}

// cleanupTestEnv cleans up environment variables after tests
func cleanupTestEnv() {
	for _, key := range []string{
		"APP_ENV",
		"LINE_CHANNEL_SECRET",
		"LINE_CHANNEL_TOKEN",
		"SPOTIFY_CLIENT_ID",
		"SPOTIFY_CLIENT_SECRET",
		"AUTH_STATE_SECRET",
		"STORAGE_DRIVER",
		"STORAGE_BOLT_PATH",
		"BOT_UPLOAD_TIMEOUT",
		"AUTH_STATE_TTL",
	} {
		os.Unsetenv(key)
	}
}

// TestConfigReadsFileAndEnvironment tests that the file is read and env vars override it
func TestConfigReadsFileAndEnvironment(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()

	InitViper(".", "")
	cfg := GetViper()

	if cfg.App.Env != "test" {
		t.Errorf("Expected App.Env to be test, got %q", cfg.App.Env)
	}
	if cfg.Line.ChannelSecret != "line-secret" || cfg.Line.ChannelToken != "line-token" {
		t.Errorf("Expected LINE credentials from env, got %+v", cfg.Line)
	}
	if cfg.Spotify.ClientID != "client-id" || cfg.Spotify.ClientSecret != "client-secret" {
		t.Errorf("Expected Spotify credentials from env, got %+v", cfg.Spotify)
	}
	if cfg.Spotify.RedirectURL != "http://localhost:9089/spotifyauth" {
		t.Errorf("Expected redirect URL from file, got %q", cfg.Spotify.RedirectURL)
	}
	if cfg.Auth.StateSecret != "state-secret" {
		t.Errorf("Expected state secret from env, got %q", cfg.Auth.StateSecret)
	}
}

// TestStorageAndBotOverrides tests duration and driver overrides
func TestStorageAndBotOverrides(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()
	os.Setenv("STORAGE_DRIVER", DriverBolt)
	os.Setenv("STORAGE_BOLT_PATH", "/tmp/bot.db")
	os.Setenv("BOT_UPLOAD_TIMEOUT", "45s")
	os.Setenv("AUTH_STATE_TTL", "5m")

	InitViper(".", "")
	cfg := GetViper()

	if cfg.Storage.Driver != DriverBolt || cfg.Storage.BoltPath != "/tmp/bot.db" {
		t.Errorf("Expected bolt storage at /tmp/bot.db, got %+v", cfg.Storage)
	}
	if cfg.Bot.UploadTimeout != 45*time.Second {
		t.Errorf("Expected upload timeout 45s, got %s", cfg.Bot.UploadTimeout)
	}
	if cfg.Auth.StateTTL != 5*time.Minute {
		t.Errorf("Expected state TTL 5m, got %s", cfg.Auth.StateTTL)
	}
}

// TestMissingEnvironmentFileFallsBack tests that an unknown env falls back to config.yaml
func TestMissingEnvironmentFileFallsBack(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()

	InitViper(".", "staging")
	cfg := GetViper()

	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("Expected default driver postgres, got %q", cfg.Storage.Driver)
	}
	if cfg.Bot.UploadTimeout != 30*time.Second {
		t.Errorf("Expected default upload timeout 30s, got %s", cfg.Bot.UploadTimeout)
	}
}
