package websocket

import (
	"context"
	"sync"
	"time"

	"venturelink/domain/core/valueobjects"
	"venturelink/pkg/observability"

	"go.uber.org/zap"
)

// Hub is the connection registry of the live channel. It fans frames out to
// every registered connection; the per-user index only backs connection limits.
type Hub struct {
	clients map[*Client]struct{}
	perUser map[valueobjects.UserID]int
	mu      sync.RWMutex

	// One FIFO queue for both directions: a client's unregister can never
	// overtake its register.
	events chan hubEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	metrics *observability.Collector
	logger  *zap.Logger
}

type hubEvent struct {
	client   *Client
	register bool
}

// NewHub creates a new hub. metrics may be nil.
func NewHub(metrics *observability.Collector, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[valueobjects.UserID]int),
		events:  make(chan hubEvent, 200),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Run is the hub's event loop. It returns after Stop, once every connection is closed.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		close(h.done)
	}()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAll()
			return

		case event := <-h.events:
			if event.register {
				h.add(event.client)
			} else {
				h.remove(event.client)
			}

		case <-ticker.C:
			h.mu.RLock()
			total, users := len(h.clients), len(h.perUser)
			h.mu.RUnlock()
			h.logger.Debug("Hub stats",
				zap.Int("totalConnections", total),
				zap.Int("authenticatedUsers", users),
			)
		}
	}
}

// Stop shuts the hub down and waits for the event loop to exit
func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
	<-h.done
}

// Broadcast enqueues frame on every registered connection. A connection whose
// buffer is full is evicted instead of blocking the others.
func (h *Hub) Broadcast(frame []byte) (delivered, dropped int) {
	delivered, dropped = h.fanOut(nil, frame)
	h.metrics.RecordBroadcast(delivered, dropped)
	return delivered, dropped
}

// Relay enqueues a client frame on every connection except its sender
func (h *Hub) Relay(from *Client, frame []byte) (delivered, dropped int) {
	delivered, dropped = h.fanOut(from, frame)
	h.metrics.RecordRelay(delivered, dropped)
	return delivered, dropped
}

func (h *Hub) fanOut(skip *Client, frame []byte) (delivered, dropped int) {
	for _, client := range h.snapshot() {
		if client == skip {
			continue
		}
		if client.enqueue(frame) {
			delivered++
			continue
		}

		dropped++
		h.logger.Warn("Evicting slow client",
			zap.Int64("userID", client.userID.Int64()),
			zap.String("connectionID", client.id),
		)
		client.close()
	}
	return delivered, dropped
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnectionCount returns the number of registered connections of one user
func (h *Hub) UserConnectionCount(userID valueobjects.UserID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.perUser[userID]
}

func (h *Hub) enqueueRegister(client *Client) bool {
	select {
	case h.events <- hubEvent{client: client, register: true}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) enqueueUnregister(client *Client) {
	select {
	case h.events <- hubEvent{client: client}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) add(client *Client) {
	if client.closed() {
		return
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	if !client.userID.IsZero() {
		h.perUser[client.userID]++
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetActiveConnections(total)
	h.logger.Info("Client registered",
		zap.Int64("userID", client.userID.Int64()),
		zap.String("connectionID", client.id),
		zap.Int("totalConnections", total),
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if !client.userID.IsZero() {
		h.perUser[client.userID]--
		if h.perUser[client.userID] <= 0 {
			delete(h.perUser, client.userID)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.metrics.SetActiveConnections(total)
	h.logger.Info("Client unregistered",
		zap.Int64("userID", client.userID.Int64()),
		zap.String("connectionID", client.id),
		zap.Int("totalConnections", total),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.perUser = make(map[valueobjects.UserID]int)
	h.mu.Unlock()

	for client := range clients {
		client.close()
	}
	h.metrics.SetActiveConnections(0)
	h.logger.Info("All connections closed", zap.Int("closed", len(clients)))
}
