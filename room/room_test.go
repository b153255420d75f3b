package room

import (
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/gobang/game"
	"github.com/wfunc/gobang/logger"
	"github.com/wfunc/gobang/network"
	"github.com/wfunc/gobang/session"
	"github.com/wfunc/gobang/state"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mutex  sync.Mutex
	events []string
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, event string, payload interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockBroadcaster) Events() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.events...)
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(event string, payload interface{}) error { return nil }
func (m *MockConnection) ReadEnvelope() (*network.Envelope, error)     { return nil, nil }
func (m *MockConnection) Close() error                                 { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                         { return &net.TCPAddr{} }

// newTestSession creates a dummy session for testing purposes.
func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

// newPlayingRoom creates a room with both seats filled and the game started.
func newPlayingRoom(t *testing.T) (*Room, *session.Session, *session.Session, *MockBroadcaster) {
	t.Helper()

	broadcaster := &MockBroadcaster{}
	attacker := newTestSession("attacker")
	defender := newTestSession("defender")

	room := NewRoom("room01", attacker, broadcaster)
	if err := room.Join(defender); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return room, attacker, defender, broadcaster
}

// playToWin has the attacker complete five in a row at y=0 while the
// defender answers on y=1.
func playToWin(t *testing.T, room *Room, attacker, defender *session.Session) {
	t.Helper()

	for x := 0; x < 5; x++ {
		finished, err := room.Move(attacker.ID, x, 0)
		if err != nil {
			t.Fatalf("attacker move %d failed: %v", x, err)
		}
		if x == 4 {
			if !finished {
				t.Fatal("fifth stone in a row should finish the game")
			}
			return
		}
		if finished {
			t.Fatalf("game finished early at move %d", x)
		}
		if _, err := room.Move(defender.ID, x, 1); err != nil {
			t.Fatalf("defender move %d failed: %v", x, err)
		}
	}
}

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager := NewRoomManager(nil)
	broadcaster := &MockBroadcaster{}

	room := manager.CreateRoom(newTestSession("creator"), broadcaster)
	if room == nil {
		t.Fatal("CreateRoom should not return nil")
	}

	if len(room.ID) != roomIDLength {
		t.Errorf("Expected a %d-char room id, got %q", roomIDLength, room.ID)
	}
	for _, c := range room.ID {
		if !strings.ContainsRune(roomIDCharset, c) {
			t.Errorf("Room id %q contains unexpected character %q", room.ID, c)
		}
	}

	retrievedRoom, exists := manager.GetRoom(room.ID)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrievedRoom != room {
		t.Error("GetRoom should return the same room instance")
	}

	if room.Status() != state.StatusWaiting {
		t.Errorf("Expected new room to be waiting, got %s", room.Status())
	}
	if manager.Count() != 1 {
		t.Errorf("Expected room count 1, got %d", manager.Count())
	}
}

func TestRoomManager_RemoveRoom(t *testing.T) {
	manager := NewRoomManager(nil)
	room := manager.CreateRoom(newTestSession("creator"), &MockBroadcaster{})

	manager.RemoveRoom(room.ID)

	if _, exists := manager.GetRoom(room.ID); exists {
		t.Fatal("GetRoom should not find a removed room")
	}
	if manager.Count() != 0 {
		t.Errorf("Expected room count 0, got %d", manager.Count())
	}
}

func TestRoomManager_FindBySession(t *testing.T) {
	manager := NewRoomManager(nil)
	creator := newTestSession("creator")
	room := manager.CreateRoom(creator, &MockBroadcaster{})
	manager.CreateRoom(newTestSession("other"), &MockBroadcaster{})

	rooms := manager.FindBySession(creator.ID)
	if len(rooms) != 1 || rooms[0] != room {
		t.Fatalf("Expected exactly the creator's room, got %d rooms", len(rooms))
	}

	if rooms := manager.FindBySession("stranger"); len(rooms) != 0 {
		t.Errorf("Expected no rooms for a stranger, got %d", len(rooms))
	}
}

func TestRoom_Join(t *testing.T) {
	attacker := newTestSession("attacker")
	room := NewRoom("room01", attacker, &MockBroadcaster{})

	if err := room.Join(attacker); err != ErrAlreadySeated {
		t.Errorf("Expected ErrAlreadySeated for self-join, got %v", err)
	}

	defender := newTestSession("defender")
	if err := room.Join(defender); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if room.Status() != state.StatusPlaying {
		t.Errorf("Expected playing after join, got %s", room.Status())
	}

	snapshot := room.SnapshotFor(attacker.ID)
	if snapshot.CurrentPlayer != game.MarkX {
		t.Errorf("Attacker should move first, current player is %s", snapshot.CurrentPlayer)
	}
	if !snapshot.IsYourTurn {
		t.Error("Attacker should be the mover right after join")
	}

	if err := room.Join(newTestSession("latecomer")); err != ErrNotWaiting {
		t.Errorf("Expected ErrNotWaiting for a third player, got %v", err)
	}
}

func TestRoom_MovePreconditions(t *testing.T) {
	attacker := newTestSession("attacker")
	room := NewRoom("room01", attacker, &MockBroadcaster{})

	// No move before the game starts.
	if _, err := room.Move(attacker.ID, 0, 0); err != ErrNotPlaying {
		t.Errorf("Expected ErrNotPlaying before join, got %v", err)
	}

	defender := newTestSession("defender")
	if err := room.Join(defender); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// Defender may not move first.
	if _, err := room.Move(defender.ID, 0, 0); err != ErrNotYourTurn {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}

	// Strangers have no seat.
	if _, err := room.Move("stranger", 0, 0); err != ErrNotSeated {
		t.Errorf("Expected ErrNotSeated, got %v", err)
	}

	if _, err := room.Move(attacker.ID, 0, 0); err != nil {
		t.Fatalf("Attacker move failed: %v", err)
	}

	// Cells are written at most once.
	if _, err := room.Move(defender.ID, 0, 0); err != ErrCellOccupied {
		t.Errorf("Expected ErrCellOccupied, got %v", err)
	}
}

func TestRoom_TurnAlternates(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)

	moves := []struct {
		sessionID string
		x, y      int
		expected  game.Mark
	}{
		{attacker.ID, 0, 0, game.MarkO},
		{defender.ID, 5, 5, game.MarkX},
		{attacker.ID, 1, 0, game.MarkO},
		{defender.ID, -3, 7, game.MarkX},
	}

	for i, m := range moves {
		if _, err := room.Move(m.sessionID, m.x, m.y); err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
		if got := room.SnapshotFor(attacker.ID).CurrentPlayer; got != m.expected {
			t.Errorf("after move %d expected turn %s, got %s", i, m.expected, got)
		}
	}
}

func TestRoom_WinUpdatesScoreAndLifecycle(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)

	playToWin(t, room, attacker, defender)

	if room.Status() != state.StatusFinished {
		t.Fatalf("Expected finished, got %s", room.Status())
	}

	snapshot := room.SnapshotFor(attacker.ID)
	if snapshot.Winner != game.MarkX {
		t.Errorf("Expected winner X, got %q", snapshot.Winner)
	}
	if snapshot.Players.Attacker.Score != 1 {
		t.Errorf("Expected attacker score 1, got %d", snapshot.Players.Attacker.Score)
	}
	if snapshot.Players.Defender.Score != 0 {
		t.Errorf("Expected defender score 0, got %d", snapshot.Players.Defender.Score)
	}

	// No moves on a finished board.
	if _, err := room.Move(defender.ID, 100, 100); err != ErrNotPlaying {
		t.Errorf("Expected ErrNotPlaying after finish, got %v", err)
	}

	summary := room.Summary()
	if summary.Winner != AttackerNickname || summary.WinnerMark != "X" {
		t.Errorf("Unexpected summary winner: %+v", summary)
	}
	if summary.MoveCount != 9 {
		t.Errorf("Expected 9 moves in summary, got %d", summary.MoveCount)
	}
}

func TestRoom_ForceTimeout(t *testing.T) {
	room, attacker, _, broadcaster := newPlayingRoom(t)

	// Budget not elapsed yet: the claim is stale and ignored.
	if err := room.ForceTimeout(); err != ErrTimeoutNotElapsed {
		t.Fatalf("Expected ErrTimeoutNotElapsed, got %v", err)
	}

	room.mutex.Lock()
	room.turnStartedAt = time.Now().Add(-TurnBudget - time.Second)
	room.mutex.Unlock()

	if err := room.ForceTimeout(); err != nil {
		t.Fatalf("ForceTimeout failed: %v", err)
	}

	snapshot := room.SnapshotFor(attacker.ID)
	if snapshot.CurrentPlayer != game.MarkO {
		t.Errorf("Expected turn to transfer to O, got %s", snapshot.CurrentPlayer)
	}
	if snapshot.Winner != game.MarkEmpty {
		t.Errorf("A timeout must not set a winner, got %q", snapshot.Winner)
	}
	if room.Status() != state.StatusPlaying {
		t.Errorf("Room should still be playing, got %s", room.Status())
	}

	events := broadcaster.Events()
	if len(events) != 1 || events[0] != "turnTimeout" {
		t.Errorf("Expected a single turnTimeout broadcast, got %v", events)
	}

	// The clock restarted, so an immediate second claim is stale again.
	if err := room.ForceTimeout(); err != ErrTimeoutNotElapsed {
		t.Errorf("Expected ErrTimeoutNotElapsed after reset, got %v", err)
	}
}

func TestRoom_DeadlineSweep(t *testing.T) {
	room, _, _, broadcaster := newPlayingRoom(t)

	room.Update()
	if len(broadcaster.Events()) != 0 {
		t.Fatal("Sweep must not fire before the budget elapses")
	}

	room.mutex.Lock()
	room.turnStartedAt = time.Now().Add(-TurnBudget - time.Second)
	room.mutex.Unlock()

	room.Update()
	events := broadcaster.Events()
	if len(events) != 1 || events[0] != "turnTimeout" {
		t.Errorf("Expected sweep to force a turn transfer, got %v", events)
	}
}

func TestRoom_RematchSwapsRoles(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)
	playToWin(t, room, attacker, defender)

	if err := room.Rematch(defender.ID); err != nil {
		t.Fatalf("Rematch failed: %v", err)
	}

	if room.Status() != state.StatusPlaying {
		t.Fatalf("Expected playing after rematch, got %s", room.Status())
	}

	// The caller is the new attacker and moves first.
	snapshot := room.SnapshotFor(defender.ID)
	if snapshot.PlayerSymbol != game.MarkX || !snapshot.IsYourTurn {
		t.Errorf("Rematch caller should be the attacker and mover, got symbol=%s turn=%v",
			snapshot.PlayerSymbol, snapshot.IsYourTurn)
	}
	if snapshot.Players.Attacker.ID != defender.ID {
		t.Errorf("Expected %s seated as attacker, got %s", defender.ID, snapshot.Players.Attacker.ID)
	}
	if snapshot.Players.Attacker.Nickname != AttackerNickname {
		t.Errorf("Nickname should follow the seat, got %s", snapshot.Players.Attacker.Nickname)
	}

	// Scores carry over: the previous winner now defends with score 1.
	if snapshot.Players.Defender.Score != 1 || snapshot.Players.Attacker.Score != 0 {
		t.Errorf("Scores must carry over, got attacker=%d defender=%d",
			snapshot.Players.Attacker.Score, snapshot.Players.Defender.Score)
	}

	if len(snapshot.Cells) != 0 {
		t.Errorf("Rematch must clear the board, got %d cells", len(snapshot.Cells))
	}
	if snapshot.Winner != game.MarkEmpty || snapshot.LastMove != nil {
		t.Error("Rematch must clear winner and last move")
	}
}

func TestRoom_RematchKeepsRolesForAttacker(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)
	playToWin(t, room, attacker, defender)

	if err := room.Rematch(attacker.ID); err != nil {
		t.Fatalf("Rematch failed: %v", err)
	}

	snapshot := room.SnapshotFor(attacker.ID)
	if snapshot.Players.Attacker.ID != attacker.ID {
		t.Error("Attacker calling rematch should stay attacker")
	}
	if snapshot.Players.Attacker.Score != 1 {
		t.Errorf("Winner's score must survive the rematch, got %d", snapshot.Players.Attacker.Score)
	}
}

func TestRoom_RematchPreconditions(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)

	// First-caller-wins: while a round is running a rematch is rejected,
	// which also resolves the simultaneous-rematch race.
	if err := room.Rematch(attacker.ID); err != ErrNotFinished {
		t.Errorf("Expected ErrNotFinished while playing, got %v", err)
	}

	playToWin(t, room, attacker, defender)

	if err := room.Rematch("stranger"); err != ErrNotSeated {
		t.Errorf("Expected ErrNotSeated, got %v", err)
	}

	if err := room.Rematch(defender.ID); err != nil {
		t.Fatalf("Rematch failed: %v", err)
	}
	if err := room.Rematch(attacker.ID); err != ErrNotFinished {
		t.Errorf("Racing rematch should be rejected, got %v", err)
	}
}

func TestRoom_SnapshotPersonalization(t *testing.T) {
	room, attacker, defender, _ := newPlayingRoom(t)

	attackerView := room.SnapshotFor(attacker.ID)
	defenderView := room.SnapshotFor(defender.ID)

	if attackerView.PlayerSymbol != game.MarkX || defenderView.PlayerSymbol != game.MarkO {
		t.Errorf("Expected X/O symbols, got %s/%s", attackerView.PlayerSymbol, defenderView.PlayerSymbol)
	}
	if !attackerView.IsYourTurn || defenderView.IsYourTurn {
		t.Error("Only the attacker should be the mover at game start")
	}
	if attackerView.TurnTimeLimit != 20000 {
		t.Errorf("Expected a 20000ms turn budget on the wire, got %d", attackerView.TurnTimeLimit)
	}
}
