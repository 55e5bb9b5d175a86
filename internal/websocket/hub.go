package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// clusterChannel — канал Redis Pub/Sub для рассылки событий комнат между
// экземплярами сервиса
const clusterChannel = "quizroom:ws:events"

// roomMessage — сообщение для всех клиентов одной комнаты
type roomMessage struct {
	roomCode string
	payload  []byte
}

// clusterMessage — сообщение, передаваемое между экземплярами Hub
type clusterMessage struct {
	RoomCode   string          `json:"room_code"`
	InstanceID string          `json:"instance_id"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Hub ведет реестр WebSocket-клиентов по комнатам и рассылает им события.
// Движок пишет состояние в БД, а Hub лишь уведомляет наблюдателей, что
// состояние изменилось: источником истины остается хранилище.
type Hub struct {
	// Клиенты, сгруппированные по коду комнаты
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage

	// Провайдер Pub/Sub для кластерного режима
	pubsub     PubSubProvider
	instanceID string

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый хаб. При nil-провайдере работает в одиночном режиме.
func NewHub(pubsub PubSubProvider) *Hub {
	if pubsub == nil {
		pubsub = &NoOpPubSub{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan roomMessage, 256),
		pubsub:     pubsub,
		instanceID: uuid.New().String(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает цикл обработки хаба. Блокируется до Stop.
func (h *Hub) Run() {
	clusterCh, err := h.pubsub.Subscribe(h.ctx, clusterChannel)
	if err != nil {
		log.Printf("[Hub] Не удалось подписаться на кластерный канал: %v (работаем локально)", err)
		emptyCh := make(chan []byte)
		clusterCh = emptyCh
	}

	log.Printf("[Hub] Запущен, instance %s", h.instanceID)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliverLocal(msg.roomCode, msg.payload)

		case data, ok := <-clusterCh:
			if !ok {
				continue
			}
			var msg clusterMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("[Hub] Ошибка десериализации кластерного сообщения: %v", err)
				continue
			}
			// Пропускаем сообщения от самого себя: локальная доставка уже была
			if msg.InstanceID == h.instanceID {
				continue
			}
			h.deliverLocal(msg.RoomCode, msg.Payload)
		}
	}
}

// Stop останавливает хаб и закрывает все клиентские соединения
func (h *Hub) Stop() {
	h.cancel()
}

// Register ставит клиента в очередь на регистрацию
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister ставит клиента в очередь на удаление
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToRoom отправляет сообщение всем клиентам комнаты на всех
// экземплярах сервиса
func (h *Hub) BroadcastToRoom(roomCode string, payload []byte) {
	select {
	case h.broadcast <- roomMessage{roomCode: roomCode, payload: payload}:
	default:
		log.Printf("[Hub] Переполнен буфер broadcast, событие комнаты %s отброшено локально", roomCode)
	}

	msg := clusterMessage{
		RoomCode:   roomCode,
		InstanceID: h.instanceID,
		Payload:    payload,
		Timestamp:  time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации кластерного сообщения: %v", err)
		return
	}
	if err := h.pubsub.Publish(clusterChannel, data); err != nil {
		log.Printf("[Hub] Ошибка публикации в кластер: %v", err)
	}
}

// ClientCount возвращает количество подключенных клиентов этого экземпляра
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.rooms {
		count += len(clients)
	}
	return count
}

// RoomClientCount возвращает количество клиентов комнаты на этом экземпляре
func (h *Hub) RoomClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[client.RoomCode]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[client.RoomCode] = clients
	}
	clients[client] = true
	log.Printf("[Hub] Клиент %s подключен к комнате %s (всего в комнате: %d)",
		client.ConnectionID, client.RoomCode, len(clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[client.RoomCode]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.rooms, client.RoomCode)
	}
	log.Printf("[Hub] Клиент %s отключен от комнаты %s", client.ConnectionID, client.RoomCode)
}

func (h *Hub) deliverLocal(roomCode string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomCode] {
		if !client.enqueue(payload) {
			log.Printf("[Hub] Буфер клиента %s переполнен, сообщение отброшено", client.ConnectionID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomCode, clients := range h.rooms {
		for client := range clients {
			client.closeSend()
		}
		delete(h.rooms, roomCode)
	}
	log.Println("[Hub] Все клиенты отключены")
}
