package postgres

import (
	"os"
	"testing"

	"playlist-bot/internal/adapters/output/storagetest"
	"playlist-bot/internal/ports/output"
	gormDriver "playlist-bot/pkg/database_driver/gorm"
)

// TestStorageConformance runs against a real PostgreSQL when POSTGRES_TEST_HOST is set
func TestStorageConformance(t *testing.T) {
	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set, skipping PostgreSQL storage tests")
	}
	db, err := gormDriver.ConnectToPostgreSQL(
		host,
		envOr("POSTGRES_TEST_PORT", "5432"),
		envOr("POSTGRES_TEST_USERNAME", "postgres"),
		envOr("POSTGRES_TEST_PASSWORD", "postgres"),
		envOr("POSTGRES_TEST_DATABASE", "playlist_bot_test"),
		false,
	)
	if err != nil {
		t.Fatalf("ConnectToPostgreSQL() error = %v", err)
	}
	t.Cleanup(func() { gormDriver.DisconnectPostgres(db.Postgres) })

	storagetest.Run(t, func(t *testing.T) output.Storage {
		store, err := NewStorage(db.Postgres)
		if err != nil {
			t.Fatalf("NewStorage() error = %v", err)
		}
		if err = db.Postgres.Exec("TRUNCATE chat_sessions, channel_credentials").Error; err != nil {
			t.Fatalf("truncate error = %v", err)
		}
		return store
	})
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
