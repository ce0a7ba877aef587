package server

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/middleware"
	"github.com/romeirofernandes/vhack-sub000/internal/notifications"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// wsIncoming is a client-to-server frame on the room socket.
type wsIncoming struct {
	Type        string `json:"type"` // "join", "leave", "message", "typing"
	HackathonID uint   `json:"hackathon_id"`
	Body        string `json:"body,omitempty"`
}

// WebSocketRoomHandler upgrades the connection and pumps room events.
// Room membership is negotiated over the socket: the client sends join/leave
// frames per hackathon, and message frames go through the chat service so
// REST and WebSocket senders share validation and persistence.
func (s *Server) WebSocketRoomHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.Close()
			return
		}

		if s.roomHub == nil {
			_ = conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"error","payload":"realtime unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.roomHub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"error","payload":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		client.IncomingHandler = s.handleRoomFrame

		go client.WritePump()
		client.ReadPump()
	})
}

// handleRoomFrame dispatches a single incoming socket frame.
func (s *Server) handleRoomFrame(client *notifications.Client, raw []byte) {
	var frame wsIncoming
	if err := json.Unmarshal(raw, &frame); err != nil {
		client.TrySend([]byte(`{"type":"error","payload":"malformed frame"}`))
		return
	}
	if frame.HackathonID == 0 {
		client.TrySend([]byte(`{"type":"error","payload":"hackathon_id is required"}`))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch frame.Type {
	case "join":
		allowed, err := s.chatService.CanAccessRoom(ctx, frame.HackathonID, client.UserID)
		if err != nil || !allowed {
			client.TrySend([]byte(`{"type":"error","payload":"room access denied"}`))
			return
		}
		s.roomHub.JoinRoom(client.UserID, frame.HackathonID)
		s.sendRoomAck(client, "joined", frame.HackathonID)

	case "leave":
		s.roomHub.LeaveRoom(client.UserID, frame.HackathonID)
		s.sendRoomAck(client, "left", frame.HackathonID)

	case "message":
		if s.redis != nil {
			allowed, err := middleware.CheckRateLimit(ctx, s.redis, "ws_message",
				strconv.FormatUint(uint64(client.UserID), 10), 15, time.Minute)
			if err == nil && !allowed {
				client.TrySend([]byte(`{"type":"error","payload":"rate limit exceeded"}`))
				return
			}
		}
		if _, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
			HackathonID: frame.HackathonID,
			SenderID:    client.UserID,
			Body:        frame.Body,
		}); err != nil {
			client.TrySend([]byte(`{"type":"error","payload":"message rejected"}`))
		}
		// Delivery happens via the Redis subscriber fan-out, same as REST sends.

	case "typing":
		s.roomHub.BroadcastToRoom(frame.HackathonID, notifications.RoomEvent{
			Type:        "typing",
			HackathonID: frame.HackathonID,
			UserID:      client.UserID,
		})

	default:
		client.TrySend([]byte(`{"type":"error","payload":"unknown frame type"}`))
	}
}

func (s *Server) sendRoomAck(client *notifications.Client, event string, hackathonID uint) {
	ack, err := json.Marshal(map[string]interface{}{
		"type": event,
		"payload": map[string]interface{}{
			"hackathon_id": hackathonID,
			"active_users": s.roomHub.ActiveUsers(hackathonID),
		},
	})
	if err != nil {
		log.Printf("failed to marshal room ack: %v", err)
		return
	}
	client.TrySend(ack)
}
