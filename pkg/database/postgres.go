package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"market-core/pkg/config"
	"market-core/pkg/logger"
)

// DSN 由配置拼出 PostgreSQL 连接串
// e.g. "host=localhost user=market_user password=... dbname=market_db port=5432 sslmode=disable"
func DSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

// MigrateURL golang-migrate 使用的 URL 形式
func MigrateURL(cfg config.DBConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// ConnectPostgres 连接到 PostgreSQL 数据库
// 非 production 环境打印 SQL 语句方便调试
func ConnectPostgres(cfg config.DBConfig, env string) (*gorm.DB, error) {
	level := gormlogger.Info
	if env == "production" {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true, // 唯一索引冲突转换为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池配置
	sqlDB.SetMaxIdleConns(10)           // 空闲连接数
	sqlDB.SetMaxOpenConns(100)          // 最大连接数
	sqlDB.SetConnMaxLifetime(time.Hour) // 连接最大存活时间

	logger.Info("PostgreSQL 连接成功", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return db, nil
}
