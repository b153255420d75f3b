package main

import (
	"github.com/wfunc/gobang/config"
	"github.com/wfunc/gobang/logger"
	"github.com/wfunc/gobang/monitor"
	"github.com/wfunc/gobang/persistence"
	"github.com/wfunc/gobang/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize match archive (optional)
	var db persistence.Database
	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres
		switch cfg.Database.Driver {
		case "sql":
			db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		default:
			db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Match archive enabled, database connection successful.")
	} else {
		logger.Log.Info("Match archive disabled, running in-memory only.")
	}

	// Initialize monitoring
	mon := monitor.NewMonitor("gobang")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, db, mon)

	// Start Server
	logger.Log.Infof("Starting gobang server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
