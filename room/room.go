// room/room.go
package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/gobang/game"
	"github.com/wfunc/gobang/models"
	"github.com/wfunc/gobang/network"
	"github.com/wfunc/gobang/session"
	"github.com/wfunc/gobang/state"
	"github.com/wfunc/gobang/timer"
)

const (
	// TurnBudget 每回合的时间预算，超过即被强制换手
	TurnBudget = 20000 * time.Millisecond

	// 昵称由座位决定，不由玩家自选
	AttackerNickname = "Heker"
	DefenderNickname = "Beluga"

	roomIDLength  = 6
	roomIDCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

	// 服务端侧超时扫描周期
	sweepInterval = 500 * time.Millisecond
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotWaiting        = errors.New("game not found or already started")
	ErrNotPlaying        = errors.New("game is not in progress")
	ErrNotFinished       = errors.New("game is not finished")
	ErrAlreadySeated     = errors.New("session already seated in this room")
	ErrNotSeated         = errors.New("session is not seated in this room")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrCellOccupied      = errors.New("cell already occupied")
	ErrTimeoutNotElapsed = errors.New("turn budget has not elapsed")
)

// Player 占据一个座位的玩家。连接断开即离座，座位不可转让。
type Player struct {
	Session    *session.Session
	Nickname   string
	IsAttacker bool
	Score      int
}

// Mark 返回该座位执的棋：攻方 X，守方 O
func (p *Player) Mark() game.Mark {
	if p.IsAttacker {
		return game.MarkX
	}
	return game.MarkO
}

func (p *Player) info() *models.PlayerInfo {
	if p == nil {
		return nil
	}
	return &models.PlayerInfo{
		ID:         p.Session.ID,
		Nickname:   p.Nickname,
		IsAttacker: p.IsAttacker,
		Score:      p.Score,
	}
}

// Room 是一局五子棋的权威状态。棋盘无边界，格子一旦落子直到
// 再战清盘前不会改写。所有修改都在 mutex 内完成，落子和
// 超时/再战之间不存在竞态。
type Room struct {
	ID           string
	StateMachine state.StateMachine
	CreatedAt    time.Time

	attacker *Player
	defender *Player

	board          game.Board
	turn           game.Mark
	winner         game.Mark
	lastMove       *game.Move
	turnStartedAt  time.Time
	roundStartedAt time.Time
	moveCount      int

	broadcaster Broadcaster
	sweepID     int64
	mutex       sync.RWMutex
}

// NewRoom 创建一个新房间，创建者落座攻方，比分从 0 开始
func NewRoom(id string, creator *session.Session, broadcaster Broadcaster) *Room {
	room := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		board:       make(game.Board),
		turn:        game.MarkX,
		broadcaster: broadcaster,
		attacker: &Player{
			Session:    creator,
			Nickname:   AttackerNickname,
			IsAttacker: true,
		},
	}
	creator.RoomID = id

	room.StateMachine = state.NewBaseStateMachine(state.NewWaitingState(room))
	room.StateMachine.AddTransition(state.StatusWaiting, state.StatusPlaying, nil)
	room.StateMachine.AddTransition(state.StatusPlaying, state.StatusFinished, nil)
	room.StateMachine.AddTransition(state.StatusFinished, state.StatusPlaying, nil)

	return room
}

// --- 实现 state.RoomContext 接口 ---

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

// TurnDeadlineExceeded 判断当前回合是否已超出时间预算
func (r *Room) TurnDeadlineExceeded() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.Status() != state.StatusPlaying {
		return false
	}
	return time.Since(r.turnStartedAt) > TurnBudget
}

// ForceTurnTransfer 由超时扫描调用，等价于客户端上报的 turnTimeout
func (r *Room) ForceTurnTransfer() {
	_ = r.ForceTimeout()
}

// --- 房间核心逻辑 ---

// Status 返回当前生命周期状态ID
func (r *Room) Status() string {
	return r.StateMachine.GetCurrentState().GetID()
}

// Join 让第二名玩家落座守方并开局。只在 waiting 状态下有效。
func (r *Room) Join(sess *session.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Status() != state.StatusWaiting {
		return ErrNotWaiting
	}
	if r.attacker != nil && r.attacker.Session.ID == sess.ID {
		return ErrAlreadySeated
	}

	r.defender = &Player{
		Session:    sess,
		Nickname:   DefenderNickname,
		IsAttacker: false,
	}
	sess.RoomID = r.ID

	if err := r.StateMachine.ChangeState(state.NewPlayingState(r)); err != nil {
		r.defender = nil
		return err
	}

	now := time.Now()
	r.turn = game.MarkX
	r.turnStartedAt = now
	r.roundStartedAt = now

	return nil
}

// seatOf 按会话ID反查座位。调用方需持有锁。
func (r *Room) seatOf(sessionID string) *Player {
	if r.attacker != nil && r.attacker.Session.ID == sessionID {
		return r.attacker
	}
	if r.defender != nil && r.defender.Session.ID == sessionID {
		return r.defender
	}
	return nil
}

// HasSession 判断该会话是否占据房间内的座位
func (r *Room) HasSession(sessionID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.seatOf(sessionID) != nil
}

// Move 处理一次落子。落子方由会话身份反查座位得出，客户端声明的
// 标记一律不信任。返回本局是否就此分出胜负。
func (r *Room) Move(sessionID string, x, y int) (finished bool, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Status() != state.StatusPlaying {
		return false, ErrNotPlaying
	}

	seat := r.seatOf(sessionID)
	if seat == nil {
		return false, ErrNotSeated
	}
	if seat.Mark() != r.turn {
		return false, ErrNotYourTurn
	}

	coord := game.Coord{X: x, Y: y}
	if _, occupied := r.board[coord]; occupied {
		return false, ErrCellOccupied
	}

	r.board[coord] = seat.Mark()
	r.lastMove = &game.Move{Coord: coord, Mark: seat.Mark()}
	r.moveCount++

	if winner := game.DetectWin(r.board, *r.lastMove); winner != game.MarkEmpty {
		r.winner = winner
		seat.Score++
		if err := r.StateMachine.ChangeState(state.NewFinishedState(r)); err != nil {
			return false, err
		}
		return true, nil
	}

	r.turn = r.turn.Opponent()
	r.turnStartedAt = time.Now()
	return false, nil
}

// ForceTimeout 强制换手。服务端独立校验预算确实已耗尽，未到点的
// 上报按 StaleTimeout 忽略。只换手，不判负、不计分。
func (r *Room) ForceTimeout() error {
	r.mutex.Lock()

	if r.Status() != state.StatusPlaying {
		r.mutex.Unlock()
		return ErrNotPlaying
	}
	if time.Since(r.turnStartedAt) <= TurnBudget {
		r.mutex.Unlock()
		return ErrTimeoutNotElapsed
	}

	expired := AttackerNickname
	if r.turn == game.MarkO {
		expired = DefenderNickname
	}

	r.turn = r.turn.Opponent()
	r.turnStartedAt = time.Now()
	r.mutex.Unlock()

	if r.broadcaster != nil {
		r.broadcaster.BroadcastToRoom(r.ID, network.EventTurnTimeoutNotice,
			models.TurnTimeout{Player: expired})
	}
	r.BroadcastState()
	return nil
}

// Rematch 开启新一局。只在 finished 状态下有效：两边同时点再战时，
// 先被处理的那个请求生效并成为攻方，后到的请求会落在 playing
// 状态上被拒绝。清空棋盘与胜负，比分保留。
func (r *Room) Rematch(sessionID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Status() != state.StatusFinished {
		return ErrNotFinished
	}

	caller := r.seatOf(sessionID)
	if caller == nil {
		return ErrNotSeated
	}

	// 发起者成为新一局的攻方（先手），角色互换时昵称跟着座位走
	if !caller.IsAttacker {
		r.attacker, r.defender = r.defender, r.attacker
		r.attacker.IsAttacker = true
		r.attacker.Nickname = AttackerNickname
		r.defender.IsAttacker = false
		r.defender.Nickname = DefenderNickname
	}

	if err := r.StateMachine.ChangeState(state.NewPlayingState(r)); err != nil {
		return err
	}

	now := time.Now()
	r.board = make(game.Board)
	r.winner = game.MarkEmpty
	r.lastMove = nil
	r.moveCount = 0
	r.turn = game.MarkX
	r.turnStartedAt = now
	r.roundStartedAt = now

	return nil
}

// snapshotFor 为某个座位构建个性化快照。调用方需持有读锁。
func (r *Room) snapshotFor(p *Player) models.GameState {
	status := r.Status()

	cells := make(map[string]game.Mark, len(r.board))
	for coord, mark := range r.board {
		cells[coord.Key()] = mark
	}

	gs := models.GameState{
		CurrentPlayer: r.turn,
		Cells:         cells,
		Winner:        r.winner,
		Status:        status,
		Players: models.Players{
			Attacker: r.attacker.info(),
			Defender: r.defender.info(),
		},
		TurnTimeLimit: TurnBudget.Milliseconds(),
	}

	if r.lastMove != nil {
		gs.LastMove = &models.MoveInfo{
			X:      r.lastMove.Coord.X,
			Y:      r.lastMove.Coord.Y,
			Player: r.lastMove.Mark,
		}
	}
	if status == state.StatusPlaying {
		gs.TurnStartTime = r.turnStartedAt.UnixMilli()
	}
	if p != nil {
		gs.PlayerSymbol = p.Mark()
		gs.IsYourTurn = status == state.StatusPlaying && r.turn == p.Mark()
	}

	return gs
}

// SnapshotFor 返回以某个会话视角个性化的房间快照
func (r *Room) SnapshotFor(sessionID string) models.GameState {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.snapshotFor(r.seatOf(sessionID))
}

// BroadcastState 把个性化快照分别发给两个座位
func (r *Room) BroadcastState() {
	type delivery struct {
		sess  *session.Session
		state models.GameState
	}

	r.mutex.RLock()
	var deliveries []delivery
	for _, p := range []*Player{r.attacker, r.defender} {
		if p != nil {
			deliveries = append(deliveries, delivery{p.Session, r.snapshotFor(p)})
		}
	}
	r.mutex.RUnlock()

	for _, d := range deliveries {
		d.sess.Send(network.EventGameState, d.state)
	}
}

// GetSessions returns the sessions currently seated in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sessions := make([]*session.Session, 0, 2)
	for _, p := range []*Player{r.attacker, r.defender} {
		if p != nil {
			sessions = append(sessions, p.Session)
		}
	}
	return sessions
}

// Summary 生成本局的归档摘要。只在 finished 状态下有意义。
func (r *Room) Summary() models.MatchSummary {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	summary := models.MatchSummary{
		RoomID:     r.ID,
		WinnerMark: string(r.winner),
		MoveCount:  r.moveCount,
		Duration:   int(time.Since(r.roundStartedAt).Seconds()),
	}
	if r.attacker != nil {
		summary.AttackerScore = r.attacker.Score
		if r.winner == game.MarkX {
			summary.Winner = r.attacker.Nickname
		}
	}
	if r.defender != nil {
		summary.DefenderScore = r.defender.Score
		if r.winner == game.MarkO {
			summary.Winner = r.defender.Nickname
		}
	}
	return summary
}

// Update 由超时扫描定时器调用，驱动当前状态的 OnUpdate
func (r *Room) Update() {
	if r.StateMachine != nil {
		if currentState := r.StateMachine.GetCurrentState(); currentState != nil {
			currentState.OnUpdate()
		}
	}
}

// --- 房间管理器 ---

// Manager 管理所有房间。单进程内存态，进程重启即丢失（非目标）。
type Manager struct {
	rooms  map[string]*Room
	timers *timer.TimerManager
	mutex  sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器。timers 可为 nil（测试用），
// 此时不注册超时扫描任务。
func NewRoomManager(timers *timer.TimerManager) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		timers: timers,
	}
}

// generateRoomID 生成 6 位 base36 房间号，碰撞则重试。
// 分享链接模型下无需密码学强度。调用方需持有锁。
func (m *Manager) generateRoomID() string {
	for {
		id := make([]byte, roomIDLength)
		for i := range id {
			id[i] = roomIDCharset[rand.Intn(len(roomIDCharset))]
		}
		if _, exists := m.rooms[string(id)]; !exists {
			return string(id)
		}
	}
}

// CreateRoom 创建新房间，创建者落座攻方，并注册该房间的超时扫描
func (m *Manager) CreateRoom(creator *session.Session, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(m.generateRoomID(), creator, broadcaster)
	m.rooms[room.ID] = room

	if m.timers != nil {
		room.sweepID = m.timers.AddTimer(sweepInterval, sweepInterval, room.Update)
	}
	return room
}

// RemoveRoom 从管理器中移除一个房间并注销它的扫描任务
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		if m.timers != nil && room.sweepID != 0 {
			m.timers.RemoveTimer(room.sweepID)
		}
		delete(m.rooms, id)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// FindBySession 找出某个会话占座的所有房间（正常至多一个）
func (m *Manager) FindBySession(sessionID string) []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Room
	for _, room := range m.rooms {
		if room.HasSession(sessionID) {
			result = append(result, room)
		}
	}
	return result
}

// Count 返回当前房间数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
