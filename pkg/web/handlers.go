package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/hub"
)

// handleStatus returns the current snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// ClientConfig tells the page what it is expected to do.
type ClientConfig struct {
	BrowserCamera bool   `json:"browser_camera"`
	Facing        string `json:"facing"`
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(ClientConfig{
		BrowserCamera: s.push != nil,
		Facing:        string(s.cfg.Camera.Facing),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleCommand wraps a loop command as a POST handler returning the
// resulting status.
func (s *Server) handleCommand(cmd func(context.Context) (assistant.Status, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.CommandTimeout)
		defer cancel()

		status, err := cmd(ctx)
		switch {
		case errors.Is(err, assistant.ErrNotRunning):
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return fiber.NewError(fiber.StatusGatewayTimeout, "assistant did not respond")
		case err != nil:
			return err
		}
		return c.JSON(status)
	}
}

// handleStatusWS streams status snapshots until the page goes away
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.status, c)
	if client == nil {
		return
	}
	client.Run()
}
