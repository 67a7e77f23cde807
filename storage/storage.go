package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db       *gorm.DB
	timeout  time.Duration
	maxLimit int
}

var models = []any{
	&model.User{},
	&model.AssetType{},
	&model.Manufacturer{},
	&model.Status{},
	&model.Location{},
	&model.Supplier{},
	&model.Asset{},
	&model.AssetLog{},
}

// NewStorage creates a new GORM-based storage and migrates the schema
func NewStorage(config Config) (*Storage, error) {
	s, err := Open(config)
	if err != nil {
		return nil, err
	}
	if err = s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open connects to the database without touching the schema
func Open(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Storage{
		db:       db,
		timeout:  config.QueryTimeout,
		maxLimit: config.MaxLimit,
	}, nil
}

// Migrate creates or updates all tables
func (s *Storage) Migrate() error {
	if err := s.db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DB returns the underlying gorm handle
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout())
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Backends returns all stores backed by this Storage
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Assets:        s.AssetsStorage(),
		AssetLogs:     s.AssetLogsStorage(),
		AssetTypes:    s.AssetTypesStorage(),
		Manufacturers: s.ManufacturersStorage(),
		Statuses:      s.StatusesStorage(),
		Locations:     s.LocationsStorage(),
		Suppliers:     s.SuppliersStorage(),
		Users:         s.UsersStorage(),
	}
}

// AssetsStorage returns the AssetsStorage
func (s *Storage) AssetsStorage() *AssetsStorage {
	return newAssetsStorage(s.db, s.timeout, s.maxLimit)
}

// AssetLogsStorage returns the AssetLogsStorage
func (s *Storage) AssetLogsStorage() *AssetLogsStorage {
	return &AssetLogsStorage{db: s.db, timeout: s.timeout}
}

// AssetTypesStorage returns the ReferenceStorage for asset types
func (s *Storage) AssetTypesStorage() *ReferenceStorage[model.AssetType, model.AddAssetType, model.NamedUpdate] {
	return newReferenceStorage[model.AssetType, model.AddAssetType, model.NamedUpdate](
		s, model.ReferenceAssetType,
	)
}

// ManufacturersStorage returns the ReferenceStorage for manufacturers
func (s *Storage) ManufacturersStorage() *ReferenceStorage[model.Manufacturer, model.AddManufacturer, model.NamedUpdate] {
	return newReferenceStorage[model.Manufacturer, model.AddManufacturer, model.NamedUpdate](
		s, model.ReferenceManufacturer,
	)
}

// StatusesStorage returns the ReferenceStorage for statuses
func (s *Storage) StatusesStorage() *ReferenceStorage[model.Status, model.AddStatus, model.NamedUpdate] {
	return newReferenceStorage[model.Status, model.AddStatus, model.NamedUpdate](s, model.ReferenceStatus)
}

// LocationsStorage returns the ReferenceStorage for locations
func (s *Storage) LocationsStorage() *ReferenceStorage[model.Location, model.AddLocation, model.LocationUpdate] {
	return newReferenceStorage[model.Location, model.AddLocation, model.LocationUpdate](
		s, model.ReferenceLocation,
	)
}

// SuppliersStorage returns the ReferenceStorage for suppliers
func (s *Storage) SuppliersStorage() *ReferenceStorage[model.Supplier, model.AddSupplier, model.SupplierUpdate] {
	return newReferenceStorage[model.Supplier, model.AddSupplier, model.SupplierUpdate](
		s, model.ReferenceSupplier,
	)
}

// Guard returns the ReferenceGuard
func (s *Storage) Guard() *ReferenceGuard {
	return &ReferenceGuard{db: s.db, timeout: s.timeout}
}

func (s *Storage) queryTimeout() time.Duration {
	if s.timeout <= 0 {
		return 5 * time.Second
	}
	return s.timeout
}

// withTimeout binds db to ctx, bounded by d if d is positive
func withTimeout(ctx context.Context, db *gorm.DB, d time.Duration) (*gorm.DB, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return db.WithContext(ctx), cancel
}
