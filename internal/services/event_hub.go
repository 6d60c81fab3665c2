package services

import (
	"sync"
	"time"

	"quill/internal/acl"
	"quill/pkg/logger"
	"quill/pkg/metrics"
)

// 事件类型
const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventPublished = "published"
)

// Event 数据变更事件
type Event struct {
	Type     string       `json:"type"`
	Resource acl.Resource `json:"resource"`
	ID       string       `json:"id"`
	OwnerID  string       `json:"ownerId,omitempty"`
	Status   string       `json:"status,omitempty"`
	At       time.Time    `json:"at"`
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(event Event)
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// EventHub 进程内事件分发，慢订阅者会丢弃事件而不阻塞发布方
type EventHub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

// NewEventHub 创建事件中心
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[uint64]chan Event)}
}

// Subscribe 订阅事件，返回事件通道和取消函数
func (h *EventHub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
				metrics.EventSubscribers.Dec()
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish 发布事件
func (h *EventHub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			logger.GetLogger().Warnf("event subscriber %d is full, dropping %s %s/%s", id, event.Type, event.Resource, event.ID)
		}
	}
}

// Close 关闭所有订阅
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
		metrics.EventSubscribers.Dec()
	}
}
