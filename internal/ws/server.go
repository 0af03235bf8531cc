// Package ws owns the fiber app and the socket lifecycle: upgrade, JWT
// handshake, pump startup, and the post-disconnect sweep.
package ws

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/auth"
	"github.com/fathima-sithara/realtime-service/internal/call"
	"github.com/fathima-sithara/realtime-service/internal/config"
	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/router"
)

type Server struct {
	cfg     *config.Config
	reg     *registry.Registry
	router  *router.Router
	jv      *auth.JWTValidator
	sweeper *call.Sweeper
	log     *zap.SugaredLogger
}

func NewServer(cfg *config.Config, reg *registry.Registry, r *router.Router, jv *auth.JWTValidator, sw *call.Sweeper, log *zap.SugaredLogger) *Server {
	return &Server{cfg: cfg, reg: reg, router: r, jv: jv, sweeper: sw, log: log}
}

// App builds the fiber app with the websocket endpoint and the small
// operational surface next to it.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	})
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/presence/:user_id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userId": c.Params("user_id"),
			"online": s.reg.IsOnline(c.Params("user_id")),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := s.jv.Validate(c.Query("token"))
		if err != nil {
			s.log.Debugw("ws auth failed", "err", err)
			return fiber.ErrUnauthorized
		}
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/ws", websocket.New(s.handleWS))

	return app
}

func (s *Server) handleWS(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	if userID == "" {
		_ = conn.Close()
		return
	}

	client := NewClient(conn, userID, s.router, s.cfg.Server.RateLimitPerSec)
	s.reg.Register(client)
	s.log.Infow("socket open", "user", userID)

	go client.writePump()
	client.readPump(context.Background(), s.reg, func() {
		s.log.Infow("socket closed", "user", userID)
		s.sweeper.Run(context.Background())
	})
}
