package handler

import (
	"os"

	"smart-gateway-be/internal/pkg/logger"
	internalWS "smart-gateway-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// EventStreamHandler exposes the live gateway event feed to the external
// operations dashboard over websocket.
type EventStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventStreamHandler(hub *internalWS.Hub, log logger.ILogger) *EventStreamHandler {
	return &EventStreamHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs authenticates the handshake and upgrades the connection.
func (h *EventStreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the token
	// also comes in as a query param.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("EventStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("EventStreamHandler", "Starting event stream session", nil)
			internalWS.ServeWs(h.hub, conn)
			h.logger.Info("EventStreamHandler", "Event stream session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the stream endpoint.
func (h *EventStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/events", h.ServeWs)
}
