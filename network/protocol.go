package network

// 客户端 -> 服务端
const (
	EventCreateGame      = "createGame"
	EventJoinGame        = "joinGame"
	EventMove            = "move"
	EventReadyForNewGame = "readyForNewGame"
	EventTurnTimeout     = "turnTimeout"
)

// 服务端 -> 客户端
const (
	EventGameCreated        = "gameCreated"
	EventGameState          = "gameState"
	EventTurnTimeoutNotice  = "turnTimeout"
	EventPlayerDisconnected = "playerDisconnected"
	EventError              = "error"
)
