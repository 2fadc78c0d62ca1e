package client

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"scriptstore/internal/model"
)

// InitPostgresClient opens a connection pool against the hosted store.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the services treat as the authoritative
// conflict/dedup signal.
func InitPostgresClient(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool (important for webhook bursts)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate runs schema migration; call it on the service-tier pool only,
// the anon tier has no DDL rights.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Product{},
		&model.User{},
		&model.Purchase{},
		&model.WebhookEvent{},
	)
}
