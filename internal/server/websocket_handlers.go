package server

import (
	"encoding/json"
	"log/slog"

	"resourcehub/internal/middleware"
	"resourcehub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Event types sent in reply to client frames.
const (
	eventPanel = "panel"
	eventError = "error"
)

type clientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// WebSocketUpgrade refuses plain HTTP requests on the websocket route.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketHandler pushes notifications and view refresh hints to one viewer.
// Clients may send {"type":"toggle_panel"} and {"type":"dismiss","id":...}.
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		session := s.sessions.Session(s.shutdownContext(), userID)
		send(client, notifications.Event{
			Type:    notifications.EventViewsChanged,
			Payload: map[string]int{"unread": session.Unread()},
		})

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var frame clientFrame
			if err := json.Unmarshal(message, &frame); err != nil {
				send(c, notifications.Event{Type: eventError, Payload: "invalid message"})
				return
			}
			session := s.sessions.Session(s.shutdownContext(), userID)
			switch frame.Type {
			case "toggle_panel":
				open := session.TogglePanel()
				send(c, notifications.Event{Type: eventPanel, Payload: map[string]any{
					"panelOpen": open,
					"unread":    session.Unread(),
				}})
			case "dismiss":
				if err := session.Dismiss(frame.ID); err != nil {
					send(c, notifications.Event{Type: eventError, Payload: err.Error()})
					return
				}
				send(c, notifications.Event{
					Type:    notifications.EventViewsChanged,
					Payload: map[string]int{"unread": session.Unread()},
				})
			default:
				send(c, notifications.Event{Type: eventError, Payload: "unknown message type"})
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func send(c *notifications.Client, ev notifications.Event) {
	payload, err := ev.Encode()
	if err != nil {
		return
	}
	c.TrySend([]byte(payload))
}
