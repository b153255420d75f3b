// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/gobang/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormMatchRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveMatchRecord 保存一条对局归档
func (p *GormPostgreSQL) SaveMatchRecord(summary models.MatchSummary) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		record := models.GormMatchRecord{
			RoomID:        summary.RoomID,
			Winner:        summary.Winner,
			WinnerMark:    summary.WinnerMark,
			AttackerScore: summary.AttackerScore,
			DefenderScore: summary.DefenderScore,
			MoveCount:     summary.MoveCount,
			Duration:      summary.Duration,
		}
		return tx.Create(&record).Error
	})
}

// RecentMatches 按时间倒序返回最近的对局归档
func (p *GormPostgreSQL) RecentMatches(limit int) ([]models.MatchSummary, error) {
	var records []models.GormMatchRecord
	if err := p.db.Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	summaries := make([]models.MatchSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, models.MatchSummary{
			RoomID:        r.RoomID,
			Winner:        r.Winner,
			WinnerMark:    r.WinnerMark,
			AttackerScore: r.AttackerScore,
			DefenderScore: r.DefenderScore,
			MoveCount:     r.MoveCount,
			Duration:      r.Duration,
		})
	}
	return summaries, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
