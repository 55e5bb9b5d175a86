package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Время на запись сообщения клиенту
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Период отправки ping (должен быть меньше pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 1024

	// Размер буфера исходящих сообщений клиента
	sendBufferSize = 64
)

// Client представляет одно WebSocket-соединение наблюдателя комнаты.
// Канал только на чтение с точки зрения клиента: команды идут через
// HTTP API, сюда приходят лишь уведомления об изменении состояния.
type Client struct {
	// RoomCode — код комнаты, за которой наблюдает клиент
	RoomCode string

	// ConnectionID — уникальный идентификатор соединения для логов
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// NewClient создает нового клиента для указанной комнаты
func NewClient(hub *Hub, conn *websocket.Conn, roomCode, connectionID string) *Client {
	return &Client{
		RoomCode:     roomCode,
		ConnectionID: connectionID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
	}
}

// Start регистрирует клиента в хабе и запускает насосы чтения и записи
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// enqueue ставит сообщение в очередь отправки. Возвращает false при
// переполнении буфера: медленный наблюдатель не должен тормозить комнату.
func (c *Client) enqueue(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend закрывает канал отправки ровно один раз
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump читает из соединения до ошибки или закрытия.
// Входящие сообщения игнорируются, но чтение нужно для обработки
// pong-фреймов и своевременного обнаружения разрыва.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Client] Соединение %s разорвано: %v", c.ConnectionID, err)
			}
			return
		}
	}
}

// writePump пишет сообщения из канала send и периодически пингует клиента
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Ошибка записи в соединение %s: %v", c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
