package handler

import (
	"encoding/json"
	"time"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/realtime"

	"github.com/gofiber/websocket/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	pingInterval = 20 * time.Second
	pongWait     = 60 * time.Second
)

// wsMessage is the client-to-server shape. Token is only consulted when
// WS_REQUIRE_AUTH is on.
type wsMessage struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Token string `json:"token"`
}

// QueueWS runs one websocket session: register, answer join requests,
// keep the connection alive with pings, tear down on any read error.
func QueueWS(c *websocket.Conn) {
	client := realtime.Register(c)
	defer realtime.Unregister(c)

	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		client.Touch()
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-client.CloseChan():
				return
			case <-ticker.C:
				if err := client.Ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			client.Send("error", "invalid message")
			continue
		}

		switch msg.Event {
		case "joinProviderRoom":
			pid, err := primitive.ObjectIDFromHex(msg.ID)
			if err != nil {
				client.Send("error", "invalid provider id")
				continue
			}
			if !canJoin(msg, true) {
				client.Send("error", "not authorized for this channel")
				continue
			}
			room := realtime.ProviderRoom(msg.ID)
			client.Join(room)
			client.Send("joinedProviderRoom", msg.ID)
			config.Logger().Debug("ws joined provider room",
				zap.String("client", client.ID()), zap.String("provider", msg.ID))

			// Push current state so the dashboard renders without waiting
			// for the next mutation.
			go realtime.PublishProviderQueue(pid)

		case "joinUserRoom":
			if _, err := primitive.ObjectIDFromHex(msg.ID); err != nil {
				client.Send("error", "invalid user id")
				continue
			}
			if !canJoin(msg, false) {
				client.Send("error", "not authorized for this channel")
				continue
			}
			client.Join(realtime.UserRoom(msg.ID))
			client.Send("joinedUserRoom", msg.ID)

		default:
			client.Send("error", "unknown event")
		}
	}
}

// canJoin enforces channel entitlement when WS_REQUIRE_AUTH is on: a
// token must identify the room owner, and provider channels require the
// provider role. Admins may observe any channel.
func canJoin(msg wsMessage, providerRoom bool) bool {
	if !config.GetEnvBool("WS_REQUIRE_AUTH", false) {
		return true
	}
	claims, err := config.ValidateToken(msg.Token)
	if err != nil {
		return false
	}
	if claims.Role == models.RoleAdmin {
		return true
	}
	if claims.UserID != msg.ID {
		return false
	}
	if providerRoom && claims.Role != models.RoleProvider {
		return false
	}
	return true
}
