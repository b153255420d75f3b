package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

// Envelope mirrors the server's wire format.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// send formats and sends an event to the server.
func send(c *websocket.Conn, event string, payload interface{}) error {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Data = data
	}
	return c.WriteJSON(env)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	join := flag.String("join", "", "room id to join; empty creates a new room")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	roomID := *join
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			var env Envelope
			if err := c.ReadJSON(&env); err != nil {
				log.Println("Read error:", err)
				return
			}
			switch env.Event {
			case "gameCreated":
				var created struct {
					RoomID string `json:"roomId"`
				}
				json.Unmarshal(env.Data, &created)
				roomID = created.RoomID
				log.Printf("Room created. Share this id with your opponent: %s", roomID)
			case "gameState":
				var state struct {
					Status       string `json:"status"`
					PlayerSymbol string `json:"playerSymbol"`
					IsYourTurn   bool   `json:"isYourTurn"`
					Winner       string `json:"winner"`
				}
				json.Unmarshal(env.Data, &state)
				log.Printf("State: %s, you play %s, your turn: %v, winner: %q",
					state.Status, state.PlayerSymbol, state.IsYourTurn, state.Winner)
			default:
				log.Printf("<- %s: %s", env.Event, string(env.Data))
			}
		}
	}()

	if roomID == "" {
		log.Println("Sending createGame request...")
		if err := send(c, "createGame", nil); err != nil {
			log.Fatalf("Write error: %v", err)
		}
	} else {
		log.Printf("Joining room %s...", roomID)
		if err := send(c, "joinGame", map[string]string{"roomId": roomID}); err != nil {
			log.Fatalf("Write error: %v", err)
		}
	}

	log.Println("Type 'x y' to move, 'rematch' to play again, Ctrl-C to quit.")

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
		close(input)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case line, ok := <-input:
			if !ok {
				return
			}
			if line == "rematch" {
				send(c, "readyForNewGame", map[string]string{"roomId": roomID})
				continue
			}
			var x, y int
			if _, err := fmt.Sscanf(line, "%d %d", &x, &y); err != nil {
				log.Println("Expected 'x y' or 'rematch'")
				continue
			}
			send(c, "move", map[string]interface{}{"x": x, "y": y, "roomId": roomID})
		}
	}
}
