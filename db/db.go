// Package db ouvre l'adaptateur de stockage choisi par STORE_DRIVER
package db

import (
	"context"
	"fmt"

	"github.com/whisky55/rede-social/config"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.PostgresDriver:
		return openPostgres(cfg.DatabaseURL)
	case config.MongoDriver:
		return openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.MemoryDriver:
		utils.LogInfo("Using in-memory store, data will not survive a restart")
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openPostgres(dsn string) (store.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	// Utilisation du logger GORM harmonisé
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: utils.GetGormLogger(),
	})
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	st := store.NewPostgres(gormDB)
	if err := st.Migrate(); err != nil {
		utils.LogError(err, "Error migrating database")
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	utils.LogSuccess("Database connection successful")
	return st, nil
}

func openMongo(ctx context.Context, uri, database string) (store.Store, error) {
	st, err := store.NewMongo(ctx, uri, database)
	if err != nil {
		utils.LogError(err, "Error connecting to MongoDB")
		return nil, err
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("could not create mongo indexes: %w", err)
	}

	utils.LogSuccess("MongoDB connection successful")
	return st, nil
}
