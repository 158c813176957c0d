package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"yield-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// computeTimeout bounds one websocket computation, provider retries included.
const computeTimeout = 2 * time.Minute

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			// Every new page starts from the current asset list
			client.send <- symbolsMessage(s.Service.Symbols())

		case client := <-s.unregister:
			s.drop(client)

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it rather than block the hub
					s.drop(client)
				}
			}

		case <-s.done:
			for client := range s.clients {
				s.drop(client)
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) drop(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.done)
		s.connections.Store(int64(len(s.clients)))
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a message for every connected client. It accepts a ready
// server message or a symbol list.
func (s *DashboardServer) Broadcast(payload interface{}) {
	var message *models.MServerMessage
	switch v := payload.(type) {
	case *models.MServerMessage:
		message = v
	case []string:
		message = symbolsMessage(v)
	default:
		s.Logger.Warning("Broadcast got unsupported payload %T", payload)
		return
	}

	select {
	case s.broadcast <- message:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warning("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage runs one command on the reading goroutine of the client,
// so a client sees its answers in request order.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		client.reply(errorMessage(requestError(fmt.Errorf("malformed command: %w", err))))
		return
	}

	switch cmd.Command {
	case models.CommandSymbols:
		client.reply(symbolsMessage(s.Service.Symbols()))

	case models.CommandCompute:
		req, err := commandRequest(cmd)
		if err != nil {
			client.reply(errorMessage(err))
			return
		}

		ctx, cancel := context.WithTimeout(s.ctx, computeTimeout)
		defer cancel()

		dashboard, err := s.Service.Compute(ctx, req)
		if err != nil {
			s.Logger.Warning("Websocket compute for %s failed: %v", req.Symbol, err)
			client.reply(errorMessage(err))
			return
		}
		client.reply(&models.MServerMessage{
			Type:      models.MessageDashboard,
			Dashboard: dashboard,
			Timestamp: time.Now().Unix(),
		})

	default:
		client.reply(errorMessage(requestError(fmt.Errorf("unknown command %q", cmd.Command))))
	}
}
