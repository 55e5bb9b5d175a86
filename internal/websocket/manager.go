package websocket

import (
	"encoding/json"
	"log"
)

// Manager — фасад WebSocket-подсистемы для сервисного слоя.
// Превращает доменные события в сериализованные сообщения и отдает их хабу.
type Manager struct {
	hub *Hub
}

// NewManager создает менеджер поверх хаба
func NewManager(hub *Hub) *Manager {
	return &Manager{hub: hub}
}

// Hub возвращает внутренний хаб (для регистрации клиентов обработчиком)
func (m *Manager) Hub() *Hub {
	return m.hub
}

// NotifyRoom рассылает событие всем наблюдателям комнаты. Ошибки
// сериализации только логируются: доставка уведомлений best-effort,
// истинное состояние клиент всегда может перечитать через GET /state.
func (m *Manager) NotifyRoom(roomCode string, eventType string, data interface{}) {
	event := Event{
		Type: eventType,
		Data: data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Manager] Ошибка сериализации события %s для комнаты %s: %v", eventType, roomCode, err)
		return
	}
	m.hub.BroadcastToRoom(roomCode, payload)
}

// ClientCount возвращает количество подключенных клиентов этого экземпляра
func (m *Manager) ClientCount() int {
	return m.hub.ClientCount()
}
