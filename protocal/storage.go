package protocal

import (
	"fmt"

	"playlist-bot/configs"
	httpAdapter "playlist-bot/internal/adapters/input/http"
	"playlist-bot/internal/adapters/output/boltdb"
	"playlist-bot/internal/adapters/output/memory"
	"playlist-bot/internal/adapters/output/postgres"
	"playlist-bot/internal/ports/output"
	"playlist-bot/pkg/database_driver/gorm"

	"github.com/sirupsen/logrus"
)

// backingStore is the storage selected by configuration, plus what the
// health check pings and what shutdown closes
type backingStore struct {
	storage output.Storage
	pinger  httpAdapter.Pinger
	close   func()
}

func openStorage(cfg *configs.Config) (*backingStore, error) {
	switch cfg.Storage.Driver {
	case configs.DriverMemory:
		logrus.Warn("Using in-memory storage; sessions and credentials are lost on restart")
		store := memory.NewStorage()
		return &backingStore{storage: store, pinger: store, close: func() {}}, nil

	case configs.DriverBolt:
		store, err := boltdb.Open(cfg.Storage.BoltPath, cfg.Storage.BoltTimeout)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Using bolt storage at %s", cfg.Storage.BoltPath)
		return &backingStore{
			storage: store,
			pinger:  store,
			close: func() {
				if err := store.Close(); err != nil {
					logrus.Errorf("Failed to close bolt storage: %v", err)
				}
			},
		}, nil

	case configs.DriverPostgres, "":
		dbConGorm, err := gorm.ConnectToPostgreSQL(
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Username,
			cfg.Postgres.Password,
			cfg.Postgres.DbName,
			cfg.Postgres.SSLMode,
		)
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewStorage(dbConGorm.Postgres)
		if err != nil {
			gorm.DisconnectPostgres(dbConGorm.Postgres)
			return nil, err
		}
		return &backingStore{
			storage: store,
			pinger:  store,
			close:   func() { gorm.DisconnectPostgres(dbConGorm.Postgres) },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
