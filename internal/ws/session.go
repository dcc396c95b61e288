package ws

import (
	"strconv"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// wsChannel adapts a websocket connection to the registry Channel. The
// websocket package forbids concurrent writers, so sends are serialized.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// RegisterSessionRoutes mounts the live-channel endpoint. Each session
// registers with the registry, drains inbound frames until the client
// disconnects, then unregisters.
func RegisterSessionRoutes(router fiber.Router, registry *Registry, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws/:userId", websocket.New(func(conn *websocket.Conn) {
		userID, err := strconv.ParseInt(conn.Params("userId"), 10, 64)
		if err != nil || userID <= 0 {
			_ = conn.Close()
			return
		}

		handle := registry.Register(userID, &wsChannel{conn: conn})
		logger.Info("live channel opened", zap.Int64("userId", userID))

		defer func() {
			registry.Unregister(handle)
			_ = conn.Close()
			logger.Info("live channel closed", zap.Int64("userId", userID))
		}()

		// Receive loop: inbound frames carry no control semantics yet, so
		// they are drained until the read fails on disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}
