// state/interfaces.go
package state

// RoomContext defines the interface that a Room must implement to be managed
// by the state machine. This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	TurnDeadlineExceeded() bool
	ForceTurnTransfer()
}
