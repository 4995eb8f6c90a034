package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/gorilla/websocket"
)

const clientBufferSize = 16

// WsBroker fans registered applications out to every subscribed connection.
type WsBroker struct {
	// Batches are pushed to this channel by Publish
	Notifier chan []domain.Application

	// New client connections
	newClients chan chan []domain.Application

	// Closed client connections
	closingClients chan chan []domain.Application

	// Client connections registry
	clients map[chan []domain.Application]bool

	done chan struct{}

	*sync.RWMutex
}

func NewWsBroker() *WsBroker {
	return &WsBroker{
		Notifier:       make(chan []domain.Application, 1),
		newClients:     make(chan chan []domain.Application),
		closingClients: make(chan chan []domain.Application),
		clients:        make(map[chan []domain.Application]bool),
		done:           make(chan struct{}),
		RWMutex:        &sync.RWMutex{},
	}
}

func (b *WsBroker) registerClient(s chan []domain.Application) {
	b.Lock()
	defer b.Unlock()
	b.clients[s] = true
}

func (b *WsBroker) delClient(s chan []domain.Application) {
	b.Lock()
	defer b.Unlock()
	delete(b.clients, s)
}

func (b *WsBroker) ClientCount() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.clients)
}

// Subscribe registers a new client channel. It returns nil once the broker
// has stopped.
func (b *WsBroker) Subscribe() chan []domain.Application {
	s := make(chan []domain.Application, clientBufferSize)
	select {
	case b.newClients <- s:
		return s
	case <-b.done:
		return nil
	}
}

func (b *WsBroker) Unsubscribe(s chan []domain.Application) {
	select {
	case b.closingClients <- s:
	case <-b.done:
	}
}

func (b *WsBroker) Publish(applications []domain.Application) {
	select {
	case b.Notifier <- applications:
	case <-b.done:
	}
}

func (b *WsBroker) Listen(ctx context.Context, logger *slog.Logger) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-b.newClients:
			b.registerClient(s)
			subscribersGauge.Inc()
			logger.Info("Client added", "clients", b.ClientCount())
		case s := <-b.closingClients:
			b.delClient(s)
			subscribersGauge.Dec()
			logger.Info("Removed client", "clients", b.ClientCount())
		case event := <-b.Notifier:
			b.RLock()
			for clientMessageChan := range b.clients {
				// a client that stopped reading must not stall everyone else
				select {
				case clientMessageChan <- event:
				default:
					logger.Warn("dropping batch for slow client", "applications", len(event))
				}
			}
			b.RUnlock()
		}
	}
}

const wsIdHeader = "WS-ID"

const (
	readBuffSize = 2 << 10
	writeBuffSize
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  readBuffSize,
	WriteBufferSize: writeBuffSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
