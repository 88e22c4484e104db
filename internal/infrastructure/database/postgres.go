package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/disfruleg/disfruleg-pos/internal/config"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

// Open connects using the configured driver ("postgres" or "sqlite").
func Open(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteDB(cfg.Path, debug, log)
	case "postgres", "":
		return NewPostgresDB(cfg, debug, log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: gormLogger(debug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)

	log.Info("connected to database", zap.String("driver", "postgres"), zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}

// NewSQLiteDB opens a single-connection SQLite database, used for local
// installs and tests. Use ":memory:" for a throwaway database.
func NewSQLiteDB(path string, debug bool, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger(debug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// in-memory databases are per connection
	sqlDB.SetMaxOpenConns(1)

	log.Info("connected to database", zap.String("driver", "sqlite"), zap.String("path", path))
	return db, nil
}

func gormLogger(debug bool) logger.Interface {
	if debug {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Warn)
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.SystemUser{},
		&entity.ClientGroup{},
		&entity.Client{},
		&entity.Product{},
		&entity.Invoice{},
		&entity.InvoiceLine{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SeedDefaultData creates the bootstrap administrator when configured.
func SeedDefaultData(db *gorm.DB, admin *config.AdminConfig, log *zap.Logger) error {
	if admin.Username == "" || admin.Password == "" {
		log.Info("no bootstrap admin configured")
		return nil
	}

	var count int64
	if err := db.Model(&entity.SystemUser{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if count > 0 {
		log.Info("admin user already exists", zap.String("username", admin.Username))
		return nil
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrador"
	}
	user := &entity.SystemUser{
		Username:     admin.Username,
		PasswordHash: hash,
		FullName:     name,
		Role:         enum.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info("admin user created", zap.String("username", admin.Username))
	return nil
}
