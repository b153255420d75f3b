// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/gobang/models"
)

// PostgreSQL 基于 database/sql 的实现，供不想引入 ORM 的部署使用
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS gorm_match_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(64) NOT NULL,
            winner VARCHAR(64) NOT NULL,
            winner_mark VARCHAR(4) NOT NULL,
            attacker_score INT DEFAULT 0,
            defender_score INT DEFAULT 0,
            move_count INT DEFAULT 0,
            duration INT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_gorm_match_records_room_id
            ON gorm_match_records (room_id)
    `)
	return err
}

// SaveMatchRecord 保存一条对局归档
func (p *PostgreSQL) SaveMatchRecord(summary models.MatchSummary) error {
	_, err := p.db.Exec(`
        INSERT INTO gorm_match_records
            (room_id, winner, winner_mark, attacker_score, defender_score, move_count, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, summary.RoomID, summary.Winner, summary.WinnerMark,
		summary.AttackerScore, summary.DefenderScore, summary.MoveCount, summary.Duration)
	return err
}

// RecentMatches 按时间倒序返回最近的对局归档
func (p *PostgreSQL) RecentMatches(limit int) ([]models.MatchSummary, error) {
	rows, err := p.db.Query(`
        SELECT room_id, winner, winner_mark, attacker_score, defender_score, move_count, duration
        FROM gorm_match_records
        WHERE deleted_at IS NULL
        ORDER BY id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.MatchSummary
	for rows.Next() {
		var s models.MatchSummary
		if err := rows.Scan(&s.RoomID, &s.Winner, &s.WinnerMark,
			&s.AttackerScore, &s.DefenderScore, &s.MoveCount, &s.Duration); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
