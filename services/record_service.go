// services/record_service.go
package services

import (
	"fmt"

	"github.com/wfunc/gobang/models"
	"github.com/wfunc/gobang/persistence"
)

// RecordService 负责把分出胜负的对局写入归档。db 为 nil 时
// 归档被禁用，所有方法安全地退化为空操作。
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// Enabled 归档是否开启
func (s *RecordService) Enabled() bool {
	return s != nil && s.db != nil
}

// Archive 写入一条对局归档
func (s *RecordService) Archive(summary models.MatchSummary) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.db.SaveMatchRecord(summary); err != nil {
		return fmt.Errorf("archive match %s: %w", summary.RoomID, err)
	}
	return nil
}

// RecentMatches 查询最近的对局归档
func (s *RecordService) RecentMatches(limit int) ([]models.MatchSummary, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.db.RecentMatches(limit)
}
