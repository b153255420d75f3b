package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/gobang/logger"
	"github.com/wfunc/gobang/models"
	"github.com/wfunc/gobang/room"
	"github.com/wfunc/gobang/services"
	"github.com/wfunc/gobang/session"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService 运维侧查询接口：在线统计与历史对局
type AdminService struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
	recordService  *services.RecordService
}

// NewAdminService creates a new AdminService.
func NewAdminService(rm *room.Manager, sm *session.Manager, rs *services.RecordService) *AdminService {
	return &AdminService{
		roomManager:    rm,
		sessionManager: sm,
		recordService:  rs,
	}
}

type StatsArgs struct{}

type StatsReply struct {
	ActiveRooms    int
	OnlineSessions int
	ArchiveEnabled bool
}

// Stats returns current server load counters.
func (as *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.ActiveRooms = as.roomManager.Count()
	reply.OnlineSessions = as.sessionManager.Count()
	reply.ArchiveEnabled = as.recordService.Enabled()
	return nil
}

type RecentMatchesArgs struct {
	Limit int
}

type RecentMatchesReply struct {
	Matches []models.MatchSummary
}

// RecentMatches returns the latest archived matches, newest first.
func (as *AdminService) RecentMatches(args *RecentMatchesArgs, reply *RecentMatchesReply) error {
	matches, err := as.recordService.RecentMatches(args.Limit)
	if err != nil {
		return err
	}
	reply.Matches = matches
	return nil
}
