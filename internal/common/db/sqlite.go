package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLite 打开 SQLite 数据库（纯 Go 驱动，无 CGO）。
// 主要给本地开发 / 测试用，线上环境用 MySQL。
func NewSQLite(path string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return gormDB, nil
}

// NewSQLiteInMemory 打开内存 SQLite，测试专用。
// 内存库跟连接绑定，这里把连接数限制为 1，避免连接池拿到空库。
func NewSQLiteInMemory() (*gorm.DB, error) {
	gormDB, err := NewSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	return gormDB, nil
}
