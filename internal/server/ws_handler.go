package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/bjarke-xyz/ams-gateway/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

func subscriptionMessage(id string, msgType string, payload any) (service.SubscriptionMessage, error) {
	msg := service.SubscriptionMessage{ID: id, Type: msgType}
	if payload == nil {
		return msg, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	msg.Payload = payloadBytes
	return msg, nil
}

func writeSubscriptionMessage(conn *websocket.Conn, id string, msgType string, payload any) error {
	msg, err := subscriptionMessage(id, msgType, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// handleSubscription serves one applications subscription per connection:
// the requested page first, then every application registered afterwards.
func (s *server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	clientId := uuid.NewString()
	h := http.Header{}
	h.Add(wsIdHeader, clientId)
	conn, err := upgrader.Upgrade(w, r, h)
	if err != nil {
		s.logger.Error("Error while upgrading connection", "error", err)
		return
	}
	defer conn.Close()

	var msg service.SubscriptionMessage
	if err := conn.ReadJSON(&msg); err != nil {
		s.logger.Error("error reading subscribe msg", "error", err, "clientId", clientId)
		return
	}
	if msg.Type != service.MessageSubscribe {
		_ = writeSubscriptionMessage(conn, msg.ID, service.MessageError, []graphqlError{{Message: fmt.Sprintf("expected %v, got %v", service.MessageSubscribe, msg.Type)}})
		return
	}
	input := graphqlInput{}
	if err := json.Unmarshal(msg.Payload, &input); err != nil {
		_ = writeSubscriptionMessage(conn, msg.ID, service.MessageError, []graphqlError{{Message: err.Error()}})
		return
	}
	req, err := applicationsRequest(input)
	if err != nil {
		queriesTotal.WithLabelValues("ws", "invalid").Inc()
		_ = writeSubscriptionMessage(conn, msg.ID, service.MessageError, []graphqlError{{Message: err.Error()}})
		return
	}

	// Register before reading the first page so nothing registered in between is missed.
	messageChan := s.broker.Subscribe()
	if messageChan == nil {
		_ = writeSubscriptionMessage(conn, msg.ID, service.MessageComplete, nil)
		return
	}
	defer s.broker.Unsubscribe(messageChan)

	applications, err := s.appRepository.ListPage(r.Context(), req)
	if err != nil {
		queriesTotal.WithLabelValues("ws", "failure").Inc()
		s.logger.Error("error listing applications", "error", err, "clientId", clientId)
		_ = writeSubscriptionMessage(conn, msg.ID, service.MessageError, []graphqlError{{Message: "error listing applications"}})
		return
	}
	queriesTotal.WithLabelValues("ws", "success").Inc()
	if err := writeSubscriptionMessage(conn, msg.ID, service.MessageNext, applicationsResponse(applications)); err != nil {
		s.logger.Error("failed to write ws msg", "error", err, "clientId", clientId)
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case batch := <-messageChan:
			batch = lo.Filter(batch, func(app domain.Application, _ int) bool { return req.Includes(app) })
			if len(batch) == 0 {
				continue
			}
			if err := writeSubscriptionMessage(conn, msg.ID, service.MessageNext, applicationsResponse(batch)); err != nil {
				s.logger.Error("failed to write ws msg", "error", err, "clientId", clientId)
				return
			}
		}
	}
}
