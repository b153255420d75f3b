package state

import (
	"github.com/wfunc/gobang/logger"
)

// PlayingState 对局进行状态。每次落子或强制换手都会重置回合时钟；
// OnUpdate 由房间的扫描定时器驱动，发现超时就强制换手，
// 不依赖客户端上报。
type PlayingState struct {
	RoomStateBase
}

// NewPlayingState 创建新的对局状态
func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   StatusPlaying,
			Room: room,
		},
	}
}

// OnEnter 进入对局状态
func (s *PlayingState) OnEnter() {
	logger.Log.Infof("房间 %s 进入对局状态", s.Room.GetID())
}

// OnExit 退出对局状态
func (s *PlayingState) OnExit() {
	logger.Log.Infof("房间 %s 退出对局状态", s.Room.GetID())
}

// OnUpdate 服务端侧的回合超时扫描
func (s *PlayingState) OnUpdate() {
	if s.Room.TurnDeadlineExceeded() {
		s.Room.ForceTurnTransfer()
	}
}
