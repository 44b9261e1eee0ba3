package websocket

import (
	"context"
	"encoding/json"

	"venturelink/domain/core/entities"

	"go.uber.org/zap"
)

// FrameTypeMessage tags frames carrying a freshly appended message
const FrameTypeMessage = "message"

// Frame is the envelope of every server-originated frame
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broadcaster pushes appended messages to every live connection
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over hub
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger,
	}
}

// EncodeMessageFrame wraps msg in a message frame
func EncodeMessageFrame(msg *entities.Message) ([]byte, error) {
	return json.Marshal(Frame{Type: FrameTypeMessage, Data: msg})
}

// BroadcastMessage wraps msg in a message frame and fans it out. Failures are logged only.
func (b *Broadcaster) BroadcastMessage(_ context.Context, msg *entities.Message) {
	frame, err := EncodeMessageFrame(msg)
	if err != nil {
		b.logger.Error("Failed to marshal message frame",
			zap.Int64("messageID", msg.ID.Int64()),
			zap.Error(err),
		)
		return
	}

	delivered, dropped := b.hub.Broadcast(frame)
	b.logger.Debug("Message broadcast",
		zap.Int64("messageID", msg.ID.Int64()),
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped),
	)
}
