// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormMatchRecord 一局结束后的归档记录
type GormMatchRecord struct {
	gorm.Model
	RoomID        string `gorm:"index;not null"`
	Winner        string `gorm:"not null"` // 获胜方昵称
	WinnerMark    string `gorm:"not null"` // X 或 O
	AttackerScore int    `gorm:"default:0"`
	DefenderScore int    `gorm:"default:0"`
	MoveCount     int    `gorm:"default:0"`
	Duration      int    `gorm:"default:0"` // 本局时长(秒)
}

// MatchSummary 对外查询用的精简视图（RPC / 服务层）
type MatchSummary struct {
	RoomID        string `json:"room_id"`
	Winner        string `json:"winner"`
	WinnerMark    string `json:"winner_mark"`
	AttackerScore int    `json:"attacker_score"`
	DefenderScore int    `json:"defender_score"`
	MoveCount     int    `json:"move_count"`
	Duration      int    `json:"duration"`
}
