// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/gobang/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, payload interface{}) error
}

// RoomBroadcaster 把同一份消息发给房间里的两个座位。个性化的
// gameState 快照不走这里，由房间自己按座位分发。
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager: roomManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, event string, payload interface{}) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.GetSessions() {
		if err := s.Send(event, payload); err != nil {
			// 发送失败的连接由它自己的读循环负责清理
			continue
		}
	}

	return nil
}
