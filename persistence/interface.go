// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/gobang/models"
)

// Database 对局归档存储接口。房间运行态永远不落库，
// 这里只保存已经分出胜负的对局摘要。
type Database interface {
	SaveMatchRecord(summary models.MatchSummary) error
	RecentMatches(limit int) ([]models.MatchSummary, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
