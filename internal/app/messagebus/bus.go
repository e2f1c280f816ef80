package messagebus

import (
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"log/slog"
	"sync"
)

type EventHandler func(event domain.Event) error

// MessageBus fans domain events out to handlers, each in its own goroutine.
// Close waits for the handlers still running.
type MessageBus struct {
	logger     *slog.Logger
	handlersMu sync.RWMutex
	handlers   map[string][]EventHandler
	wg         sync.WaitGroup
}

func New(logger *slog.Logger) *MessageBus {
	return &MessageBus{
		logger:   logger,
		handlers: make(map[string][]EventHandler),
		wg:       sync.WaitGroup{},
	}
}

func (b *MessageBus) Register(eventType string, handler EventHandler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MessageBus) PublishEvents(events ...domain.Event) error {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	for _, event := range events {
		for _, handler := range b.handlers[event.Type()] {
			event, handler := event, handler
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("event handler panicked", "type", event.Type(), "panic", r)
					}
				}()
				if err := handler(event); err != nil {
					b.logger.Error("failed to handle event", "type", event.Type(), "err", err)
				}
			}()
		}
	}
	return nil
}

func (b *MessageBus) Close() {
	b.wg.Wait()
}
