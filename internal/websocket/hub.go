package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType типы live-событий
type EventType string

const (
	TypePing           EventType = "ping"
	TypeSessionRevoked EventType = "session_revoked"
)

type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub рассылает события всем соединениям пользователя
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	pingInterval time.Duration
	logger       *slog.Logger

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:      make(map[uuid.UUID]*Client),
		userClients:  make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		pingInterval: 30 * time.Second,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) error {
	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		close(client.Send)
		return
	}
	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.logger.Debug("client registered", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeUnsafe(client)
}

// removeUnsafe вызывается под h.mu; повторный вызов для клиента ничего не делает
func (h *Hub) removeUnsafe(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	h.logger.Debug("client unregistered", "client_id", client.ID, "user_id", client.UserID)
}

// Publish отправляет событие во все соединения пользователя
func (h *Hub) Publish(userID uuid.UUID, eventType string, data any) {
	msg, err := encodeEvent(EventType(eventType), data)
	if err != nil {
		h.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}
	h.SendToUser(userID, msg)
}

// SendToUser отправляет сообщение пользователю
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		h.trySend(client, message)
	}
}

// DisconnectToken закрывает соединения, открытые с отозванным токеном
func (h *Hub) DisconnectToken(userID uuid.UUID, token string) {
	h.disconnect(userID, func(c *Client) bool { return c.Token == token })
}

// DisconnectUser закрывает все соединения пользователя
func (h *Hub) DisconnectUser(userID uuid.UUID) {
	h.disconnect(userID, func(*Client) bool { return true })
}

func (h *Hub) disconnect(userID uuid.UUID, match func(*Client) bool) {
	msg, _ := encodeEvent(TypeSessionRevoked, nil)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		if !match(client) {
			continue
		}
		h.trySend(client, msg)
		h.removeUnsafe(client)
	}
}

// Online количество открытых соединений пользователя
func (h *Hub) Online(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

func (h *Hub) trySend(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("client send channel full", "client_id", client.ID)
	}
}

func (h *Hub) ping() {
	msg, err := encodeEvent(TypePing, nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- msg:
		default:
		}
	}
}

func encodeEvent(eventType EventType, data any) ([]byte, error) {
	ev := Event{Type: eventType, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		ev.Data = raw
	}
	return json.Marshal(ev)
}
