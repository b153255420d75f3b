package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/gobang/broadcast"
	"github.com/wfunc/gobang/logger"
	"github.com/wfunc/gobang/models"
	"github.com/wfunc/gobang/monitor"
	"github.com/wfunc/gobang/network"
	"github.com/wfunc/gobang/persistence"
	"github.com/wfunc/gobang/room"
	gobang_rpc "github.com/wfunc/gobang/rpc"
	"github.com/wfunc/gobang/services"
	"github.com/wfunc/gobang/session"
	"github.com/wfunc/gobang/timer"
)

// GameServer 是连接网关：把入站事件分发到对应房间的状态机操作，
// 并把结果按接收方视角广播回去。
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	recordService  *services.RecordService
	broadcaster    room.Broadcaster
	timers         *timer.TimerManager
	monitor        *monitor.Monitor
	rpcServer      *gobang_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, db persistence.Database, mon *monitor.Monitor) *GameServer {
	timers := timer.NewTimerManager()

	s := &GameServer{
		addr:           addr,
		roomManager:    room.NewRoomManager(timers),
		sessionManager: session.NewManager(),
		recordService:  services.NewRecordService(db),
		timers:         timers,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)

	// 初始化RPC服务器
	rpcServer, err := gobang_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := gobang_rpc.NewAdminService(s.roomManager, s.sessionManager, s.recordService)
	rpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		wsConn.Close()
		if s.monitor != nil {
			s.monitor.DecOnlinePlayers()
		}
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			env, err := wsConn.ReadEnvelope()
			if err != nil {
				if err == network.ErrMalformedEnvelope {
					continue
				}
				return
			}
			s.handleEnvelope(sess, env)
		}
	}
}

func (s *GameServer) handleEnvelope(sess *session.Session, env *network.Envelope) {
	start := time.Now()
	if s.monitor != nil {
		s.monitor.IncMessagesReceived()
		defer func() {
			s.monitor.ObserveMessageLatency(time.Since(start))
		}()
	}

	switch env.Event {
	case network.EventCreateGame:
		s.handleCreateGame(sess)
	case network.EventJoinGame:
		var req models.RoomRequest
		if err := unmarshal(env.Data, &req); err != nil {
			return
		}
		s.handleJoinGame(sess, req.RoomID)
	case network.EventMove:
		var req models.MoveRequest
		if err := unmarshal(env.Data, &req); err != nil {
			return
		}
		s.handleMove(sess, req)
	case network.EventReadyForNewGame:
		var req models.RoomRequest
		if err := unmarshal(env.Data, &req); err != nil {
			return
		}
		s.handleRematch(sess, req.RoomID)
	case network.EventTurnTimeout:
		var req models.RoomRequest
		if err := unmarshal(env.Data, &req); err != nil {
			return
		}
		s.handleTurnTimeout(sess, req.RoomID)
	default:
		logger.Log.Infof("Unknown event %q from session %s", env.Event, sess.GetID())
	}
}

func (s *GameServer) handleCreateGame(sess *session.Session) {
	r := s.roomManager.CreateRoom(sess, s.broadcaster)
	if s.monitor != nil {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}

	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.ID)

	sess.Send(network.EventGameCreated, models.GameCreated{
		RoomID:    r.ID,
		GameState: r.SnapshotFor(sess.GetID()),
	})
}

func (s *GameServer) handleJoinGame(sess *session.Session, roomID string) {
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		s.sendError(sess, room.ErrNotWaiting)
		return
	}

	if err := r.Join(sess); err != nil {
		s.sendError(sess, err)
		return
	}

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), roomID)
	r.BroadcastState()
}

func (s *GameServer) handleMove(sess *session.Session, req models.MoveRequest) {
	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		return
	}

	// req.Player 只是客户端的自我声明，落子方以座位表为准
	finished, err := r.Move(sess.GetID(), req.X, req.Y)
	if err != nil {
		// 非法落子不广播也不回执，棋盘不会因此变化
		logger.Log.Debugf("Rejected move (%d,%d) in room %s from session %s: %v",
			req.X, req.Y, req.RoomID, sess.GetID(), err)
		return
	}

	if s.monitor != nil {
		s.monitor.IncMoves()
	}
	r.BroadcastState()

	if finished {
		if s.monitor != nil {
			s.monitor.IncGamesFinished()
		}
		s.archiveMatch(r)
	}
}

func (s *GameServer) handleTurnTimeout(sess *session.Session, roomID string) {
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		return
	}

	// 超时上报要重新核对时钟，未到点的直接忽略
	if err := r.ForceTimeout(); err != nil {
		logger.Log.Debugf("Ignored timeout claim for room %s from session %s: %v",
			roomID, sess.GetID(), err)
	}
}

func (s *GameServer) handleRematch(sess *session.Session, roomID string) {
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		return
	}

	if err := r.Rematch(sess.GetID()); err != nil {
		// 两边同时点再战时，后到的请求会落在这里
		logger.Log.Debugf("Rejected rematch in room %s from session %s: %v",
			roomID, sess.GetID(), err)
		return
	}

	logger.Log.Infof("Session %s started a rematch in room %s", sess.GetID(), roomID)
	r.BroadcastState()
}

// handleDisconnect 掉线即拆房：通知对手并立刻删除该会话占座的所有房间
func (s *GameServer) handleDisconnect(sess *session.Session) {
	s.sessionManager.Remove(sess.GetID())

	for _, r := range s.roomManager.FindBySession(sess.GetID()) {
		s.broadcaster.BroadcastToRoom(r.ID, network.EventPlayerDisconnected,
			models.PlayerDisconnected{Message: "Opponent disconnected"})
		s.roomManager.RemoveRoom(r.ID)
		logger.Log.Infof("Room %s removed after session %s disconnected", r.ID, sess.GetID())
	}

	if s.monitor != nil {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}
}

// archiveMatch 异步写入对局归档，不阻塞对局路径
func (s *GameServer) archiveMatch(r *room.Room) {
	if !s.recordService.Enabled() {
		return
	}
	summary := r.Summary()
	go func() {
		if err := s.recordService.Archive(summary); err != nil {
			logger.Log.Errorf("Failed to archive match: %v", err)
		}
	}()
}

func (s *GameServer) sendError(sess *session.Session, err error) {
	sess.Send(network.EventError, err.Error())
}

func unmarshal(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(data, v)
}
