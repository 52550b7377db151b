package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 64
	hubQueueSize   = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves /ws and is the Broadcaster for game events.
type WebSocketHandler struct {
	economy *services.EconomyManager
	hub     *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	AccountID string
	Conn      *websocket.Conn
	send      chan *Message
}

type Message struct {
	Type      string      `json:"type"`
	AccountID string      `json:"-"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler(economy *services.EconomyManager) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, hubQueueSize),
	}

	go hub.run()

	return &WebSocketHandler{
		economy: economy,
		hub:     hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	id := accountID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade to WebSocket")
		return
	}

	client := &Client{
		AccountID: id,
		Conn:      conn,
		send:      make(chan *Message, clientSendSize),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalances(c, client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("account_id", id).Warn("WebSocket error")
			}
			break
		}

		if msg.Type == "PING" {
			client.enqueue(&Message{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (h *WebSocketHandler) sendBalances(c *gin.Context, client *Client) {
	account, err := h.economy.Account(c.Request.Context(), client.AccountID)
	if err != nil {
		log.WithError(err).Warn("Failed to load account for WebSocket")
		return
	}
	for _, mode := range models.Modes {
		client.enqueue(balanceMessage(client.AccountID, mode, account.Balance(mode)))
	}
}

func (client *Client) enqueue(msg *Message) {
	select {
	case client.send <- msg:
	default:
		log.WithField("account_id", client.AccountID).Debug("WebSocket client queue full, dropping message")
	}
}

// writePump is the only writer on the connection.
func (client *Client) writePump() {
	for msg := range client.send {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(msg); err != nil {
			log.WithError(err).WithField("account_id", client.AccountID).Debug("WebSocket write failed")
			return
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			if hub.clients[client.AccountID] == nil {
				hub.clients[client.AccountID] = make(map[*Client]bool)
			}
			hub.clients[client.AccountID][client] = true
			log.WithField("account_id", client.AccountID).Debug("Client registered")

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.AccountID]; ok && conns[client] {
				delete(conns, client)
				close(client.send)
				if len(conns) == 0 {
					delete(hub.clients, client.AccountID)
				}
				log.WithField("account_id", client.AccountID).Debug("Client unregistered")
			}

		case message := <-hub.broadcast:
			for client := range hub.clients[message.AccountID] {
				client.enqueue(message)
			}
		}
	}
}

func (h *WebSocketHandler) publish(msg *Message) {
	select {
	case h.hub.broadcast <- msg:
	default:
		log.WithField("type", msg.Type).Warn("WebSocket hub queue full, dropping message")
	}
}

func balanceMessage(accountID string, mode models.Mode, balance int64) *Message {
	return &Message{
		Type:      "BALANCE_UPDATE",
		AccountID: accountID,
		Data: gin.H{
			"mode":          mode,
			"balance":       models.FormatCoins(balance),
			"balance_cents": balance,
		},
	}
}

func (h *WebSocketHandler) BroadcastBalance(accountID string, mode models.Mode, balance int64) {
	h.publish(balanceMessage(accountID, mode, balance))
}

func (h *WebSocketHandler) BroadcastBalls(accountID string, balls []models.BallSnapshot) {
	h.publish(&Message{
		Type:      "BALLS_UPDATE",
		AccountID: accountID,
		Data:      balls,
	})
}

func (h *WebSocketHandler) BroadcastBallLanded(accountID string, ball models.BallSnapshot) {
	h.publish(&Message{
		Type:      "BALL_LANDED",
		AccountID: accountID,
		Data:      ball,
	})
}

func (h *WebSocketHandler) BroadcastDealerMessage(accountID, message string) {
	h.publish(&Message{
		Type:      "DEALER_MESSAGE",
		AccountID: accountID,
		Data: gin.H{
			"message":   message,
			"timestamp": time.Now().Unix(),
		},
	})
}

var _ services.Broadcaster = (*WebSocketHandler)(nil)
