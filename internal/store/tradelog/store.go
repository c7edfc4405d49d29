// Package tradelog persists structured trade records to SQLite. The log is
// an audit trail only; engine state is always re-derived from the exchange,
// never from here.
package tradelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("tradelog: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("tradelog: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&TradeModel{}); err != nil {
		return nil, fmt.Errorf("tradelog: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, trade *TradeModel) error {
	if trade == nil {
		return fmt.Errorf("tradelog: nil trade")
	}
	return s.db.WithContext(ctx).Create(trade).Error
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]TradeModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []TradeModel
	err := s.db.WithContext(ctx).Order("closed_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
