package websocket

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"stocklot/internal/models"
)

// ============ ОПТИМИЗАЦИЯ: sync.Pool для JSON буферов ============
// Убирает аллокации при каждой отправке

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// directedMessage - сообщение для соединений одного пользователя
type directedMessage struct {
	userID string
	data   []byte
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер real-time доставки событий заказа на frontend
// без polling. Каждое соединение привязано к аутентифицированному
// пользователю: уведомления и обновления заказов уходят только на
// соединения их адресата, общие broadcast'ы - всем.
//
// Функции:
// - Регистрация новых WebSocket клиентов (с идентификатором пользователя)
// - Отмена регистрации отключенных клиентов
// - Адресная доставка пользовательских событий (SendNotification)
// - Broadcast публичных сообщений всем активным клиентам
// - Удаление медленных клиентов (забитый send буфер)
// - Graceful остановка через Stop()
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять события: hub.SendNotification(n)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для публичных сообщений всем клиентам
	broadcast chan []byte

	// Канал адресных сообщений одному пользователю
	direct chan directedMessage

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки главного цикла
	stop chan struct{}

	// Счетчик сообщений, отброшенных при переполнении каналов
	dropped atomic.Int64

	// Lock-free счетчик клиентов для ClientCount
	clientCount atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directedMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и доставку сообщений
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientCount.Store(0)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			h.mu.Unlock()
			log.Printf("Client connected. Total clients: %d", h.clientCount.Load())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientCount.Store(int64(len(h.clients)))
			h.mu.Unlock()
			log.Printf("Client disconnected. Total clients: %d", h.clientCount.Load())

		case message := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				targets = append(targets, client)
			}
			h.mu.RUnlock()

			h.deliver(targets, message)

		case dm := <-h.direct:
			// Только соединения адресата: приватные данные заказа
			// не должны уходить чужим клиентам
			h.mu.RLock()
			targets := make([]*Client, 0, 2)
			for client := range h.clients {
				if client.userID == dm.userID {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			h.deliver(targets, dm.data)
		}
	}
}

// deliver отправляет сообщение без блокировки, медленных клиентов
// удаляет под write lock'ом
func (h *Hub) deliver(targets []*Client, message []byte) {
	var toRemove []*Client
	for _, client := range targets {
		select {
		case client.send <- message:
		default:
			// Клиент не успевает читать - помечаем для удаления
			toRemove = append(toRemove, client)
		}
	}

	if len(toRemove) > 0 {
		h.mu.Lock()
		for _, client := range toRemove {
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		}
		h.clientCount.Store(int64(len(h.clients)))
		h.mu.Unlock()
		log.Printf("Removed %d slow clients. Total clients: %d", len(toRemove), h.clientCount.Load())
	}
}

// Stop останавливает главный цикл и закрывает все соединения
func (h *Hub) Stop() {
	close(h.stop)
}

// marshalMessage сериализует сообщение через пул буферов
func marshalMessage(message interface{}) ([]byte, bool) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("Error marshaling hub message: %v", err)
		jsonBufferPool.Put(buf)
		return nil, false
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернется в пул)
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)
	return msgCopy, true
}

// Broadcast отправляет публичное сообщение всем подключенным клиентам.
// Не блокируется: при переполнении канала сообщение отбрасывается.
func (h *Hub) Broadcast(message interface{}) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	h.BroadcastRaw(data)
}

// BroadcastRaw отправляет уже сериализованное публичное сообщение
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// SendNotification доставляет уведомление на соединения его адресата.
// Реализует service.WebSocketSender.
func (h *Hub) SendNotification(notif *models.Notification) {
	h.sendToUser(notif.UserID, NewNotificationMessage(notif))
}

// SendOrderUpdate доставляет изменение статуса заказа покупателю
func (h *Hub) SendOrderUpdate(group *models.OrderGroup) {
	h.sendToUser(group.BuyerID, NewOrderUpdateMessage(group))
}

func (h *Hub) sendToUser(userID string, message interface{}) {
	if userID == "" {
		return
	}
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	select {
	case h.direct <- directedMessage{userID: userID, data: data}:
	default:
		h.dropped.Add(1)
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
