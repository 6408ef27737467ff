package protocal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"playlist-bot/configs"
)

func TestOpenStorage(t *testing.T) {
	tests := []struct {
		name    string
		storage configs.Storage
		wantErr bool
	}{
		{"memory", configs.Storage{Driver: configs.DriverMemory}, false},
		{"bolt", configs.Storage{Driver: configs.DriverBolt, BoltPath: filepath.Join(t.TempDir(), "bot.db"), BoltTimeout: time.Second}, false},
		{"unknown", configs.Storage{Driver: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStorage(&configs.Config{Storage: tt.storage})
			if (err != nil) != tt.wantErr {
				t.Fatalf("openStorage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.close()

			if err = store.pinger.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
			if err = store.storage.SaveState(context.Background(), "C1", "creating_playlist"); err != nil {
				t.Errorf("SaveState() error = %v", err)
			}
		})
	}
}
