package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/envutil"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

// PostgresConfig carries the connection settings, loadable from the
// environment with an optional YAML overlay.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     envutil.Str("POSTGRES_HOST", "localhost"),
		Port:     envutil.Int("POSTGRES_PORT", 5432),
		User:     envutil.Str("POSTGRES_USER", "postgres"),
		Password: envutil.Str("POSTGRES_PASSWORD", ""),
		Name:     envutil.Str("POSTGRES_NAME", "catalog"),
		SSLMode:  envutil.Str("POSTGRES_SSLMODE", "disable"),
	}
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(baseLog *logger.Logger, cfg PostgresConfig) (*PostgresService, error) {
	serviceLog := baseLog.With("service", "PostgresService")

	serviceLog.Info("Connecting to Postgres...", "host", cfg.Host, "database", cfg.Name)
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Collection{},
		&types.Entity{},
		&types.Dataset{},
		&types.TrainedModel{},
		&types.Task{},

		&types.LedgerTransaction{},
		&types.EntityRevision{},
		&types.DatasetRevision{},
		&types.TrainedModelRevision{},
		&types.TaskRevision{},
		&types.EntityVersionHash{},
		&types.EntityVersionTag{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
