// models/models.go
package models

import (
	"github.com/wfunc/gobang/game"
)

// PlayerInfo 座位上的玩家信息
type PlayerInfo struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	IsAttacker bool   `json:"isAttacker"`
	Score      int    `json:"score"`
}

// Players 房间的两个座位：攻方先手执 X，守方执 O
type Players struct {
	Attacker *PlayerInfo `json:"attacker,omitempty"`
	Defender *PlayerInfo `json:"defender,omitempty"`
}

// MoveInfo 最近一次落子
type MoveInfo struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Player game.Mark `json:"player"`
}

// GameState 是发给客户端的房间快照。PlayerSymbol 和 IsYourTurn
// 是按接收方视角填写的字段，其余字段对双方一致。
type GameState struct {
	CurrentPlayer game.Mark            `json:"currentPlayer"`
	Cells         map[string]game.Mark `json:"cells"`
	Winner        game.Mark            `json:"winner,omitempty"`
	Status        string               `json:"status"`
	Players       Players              `json:"players"`
	LastMove      *MoveInfo            `json:"lastMove,omitempty"`
	TurnStartTime int64                `json:"turnStartTime,omitempty"` // Unix 毫秒
	TurnTimeLimit int64                `json:"turnTimeLimit"`           // 毫秒
	PlayerSymbol  game.Mark            `json:"playerSymbol,omitempty"`
	IsYourTurn    bool                 `json:"isYourTurn"`
}

// GameCreated 建房成功后只发给创建者
type GameCreated struct {
	RoomID    string    `json:"roomId"`
	GameState GameState `json:"gameState"`
}

// RoomRequest 只带房间号的入站请求（joinGame / readyForNewGame / turnTimeout）
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// MoveRequest 落子请求。Player 字段来自客户端声明，服务端不信任它，
// 落子方由连接身份反查座位得出。
type MoveRequest struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Player game.Mark `json:"player"`
	RoomID string    `json:"roomId"`
}

// TurnTimeout 广播给整个房间：谁的时钟超时被强制换手
type TurnTimeout struct {
	Player string `json:"player"`
}

// PlayerDisconnected 对手掉线、房间即将删除的通知
type PlayerDisconnected struct {
	Message string `json:"message"`
}
