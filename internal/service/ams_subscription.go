package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message types of the subscription protocol.
const (
	MessageSubscribe = "subscribe"
	MessageNext      = "next"
	MessageError     = "error"
	MessageComplete  = "complete"
)

// SubscriptionMessage is a single frame on the subscription socket.
type SubscriptionMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var ErrSubscriptionError = errors.New("subscription reported an error")

type AmsSubscriptionClient struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
}

func NewAmsSubscriptionClient(logger *slog.Logger, wsURL string) *AmsSubscriptionClient {
	return &AmsSubscriptionClient{
		url: wsURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SubscribeApplications opens a subscription for the applications query. Every
// next frame becomes one batch. The channel is closed when the server
// completes, the socket fails or ctx is done.
func (c *AmsSubscriptionClient) SubscribeApplications(ctx context.Context, page domain.GetApplicationsRequest) (<-chan domain.ApplicationBatch, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	payload, err := json.Marshal(ApplicationsRequest(page))
	if err != nil {
		conn.Close()
		return nil, err
	}
	id := uuid.NewString()
	err = conn.WriteJSON(SubscriptionMessage{ID: id, Type: MessageSubscribe, Payload: payload})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe: %w", err)
	}

	batches := make(chan domain.ApplicationBatch)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()
	go c.readLoop(ctx, conn, id, batches, stop)
	return batches, nil
}

func (c *AmsSubscriptionClient) readLoop(ctx context.Context, conn *websocket.Conn, id string, batches chan<- domain.ApplicationBatch, stop chan struct{}) {
	defer close(batches)
	defer close(stop)
	defer conn.Close()

	send := func(batch domain.ApplicationBatch) bool {
		select {
		case batches <- batch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Error("error reading subscription msg", "error", err)
				send(domain.ApplicationBatch{Err: fmt.Errorf("read subscription: %w", err)})
			}
			return
		}
		var msg SubscriptionMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			c.logger.Error("failed to decode subscription msg", "error", err)
			continue
		}
		if msg.ID != "" && msg.ID != id {
			continue
		}
		switch msg.Type {
		case MessageNext:
			applications, err := graphqlApplications(msg.Payload)
			if !send(domain.ApplicationBatch{Applications: applications, Err: err}) {
				return
			}
		case MessageError:
			if !send(domain.ApplicationBatch{Err: fmt.Errorf("%w: %s", ErrSubscriptionError, string(msg.Payload))}) {
				return
			}
		case MessageComplete:
			return
		default:
			c.logger.Debug("ignoring subscription msg", "type", msg.Type)
		}
	}
}
