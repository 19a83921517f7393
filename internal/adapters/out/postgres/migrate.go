package postgres

import (
	"context"
	"fmt"

	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/adapters/out/postgres/recordrepo"
	"orderflow/internal/adapters/out/postgres/templaterepo"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every persisted DTO in migration order.
func Models() []any {
	return []any{
		&templaterepo.TemplateDTO{},
		&templaterepo.ActiveTemplateDTO{},
		&templaterepo.ContractDTO{},
		&orderrepo.OrderDTO{},
		&recordrepo.HistoryDTO{},
		&recordrepo.IdempotencyDTO{},
		&recordrepo.OutboxDTO{},
		&recordrepo.ArtifactDTO{},
		&recordrepo.DocumentDTO{},
		&recordrepo.StockItemDTO{},
	}
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Open connects to PostgreSQL with GORM's error translation enabled, so
// constraint violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	cfg.TranslateError = true
	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// DSN builds a libpq connection string.
func DSN(host, port, user, password, dbName, sslMode string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)
}
