package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/types"
	"github.com/kreaker/cnc-backend/internal/utils"
)

// SqliteService owns the local user store. Operator accounts live in
// their own embedded database, separate from the catalog tables.
type SqliteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSqliteService(log *logger.Logger) (*SqliteService, error) {
	serviceLog := log.With("service", "SqliteService")

	sqlitePath := utils.GetEnv("SQLITE_PATH", "data/users.db", log)

	serviceLog.Info("Opening SQLite user store...", "path", sqlitePath)
	gormDB, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	if err != nil {
		serviceLog.Error("Failed to open SQLite user store", "error", err)
		return nil, fmt.Errorf("failed to open SQLite user store: %w", err)
	}

	return &SqliteService{db: gormDB, log: serviceLog}, nil
}

func (s *SqliteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating user table...")
	if err := s.db.AutoMigrate(&types.User{}); err != nil {
		s.log.Error("Auto migration failed for user table", "error", err)
		return err
	}
	return nil
}

func (s *SqliteService) DB() *gorm.DB {
	return s.db
}
