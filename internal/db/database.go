package db

import (
	"fmt"
	"time"

	"genome-ai/internal/logging"
	"genome-ai/pkg/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM database instance
type Database struct {
	DB *gorm.DB
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string

	// SQLitePath, when set, switches to an embedded SQLite database.
	// Used for local development and tests; production runs Postgres.
	SQLitePath string
}

// NewDatabase creates a new database connection and runs migrations
func NewDatabase(config *Config) (*Database, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	if config.SQLitePath != "" {
		db, err = gorm.Open(sqlite.Open(config.SQLitePath), gormConfig)
	} else {
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			config.Host, config.Port, config.User, config.Password,
			config.DBName, config.SSLMode, config.TimeZone,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.S().Info("Database connected successfully")
	return database, nil
}

// Migrate runs database migrations
func (d *Database) Migrate() error {
	logging.S().Info("Running database migrations...")

	err := d.DB.AutoMigrate(
		&models.User{},
		&models.ChatSession{},
		&models.GenomeReport{},
		&models.AdGeneration{},
		&models.AdIntelligenceReport{},
		&models.CompanyProfile{},
		&models.ExecutedStrategy{},
		&models.StrategyTask{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := d.createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logging.S().Info("Database migrations completed successfully")
	return nil
}

// createIndexes adds indexes beyond what the model tags declare
func (d *Database) createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_created ON chat_sessions(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_genome_reports_user_created ON genome_reports(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_executed_strategies_user_executed ON executed_strategies(user_id, executed_at)",
		"CREATE INDEX IF NOT EXISTS idx_strategy_tasks_user_status ON strategy_tasks(user_id, status)",
	}

	for _, idx := range indexes {
		if err := d.DB.Exec(idx).Error; err != nil {
			logging.S().Warnf("Failed to create index: %v", err)
		}
	}

	return nil
}

// Health checks database connectivity
func (d *Database) Health() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the underlying GORM instance
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}
