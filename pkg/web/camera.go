package web

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/frame"
	"github.com/teslashibe/go-lookout/pkg/protocol"
)

// maxFrameMessage bounds one base64 frame from the page.
const maxFrameMessage = 4 << 20

// pagePublisher is a connected page acting as the camera. Writes are
// serialized; the read loop runs on the handler goroutine.
type pagePublisher struct {
	conn   *websocket.Conn
	cfg    camera.Config
	mu     sync.Mutex
	frames atomic.Uint64
}

func (p *pagePublisher) send(msg *protocol.Message, err error) error {
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *pagePublisher) StartCapture(facing camera.Facing) error {
	return p.send(protocol.NewCameraStartMessage(protocol.CameraStartData{
		Facing: string(facing),
		Width:  p.cfg.Width,
		Height: p.cfg.Height,
		FPS:    p.cfg.Framerate,
	}))
}

func (p *pagePublisher) StopCapture() error {
	return p.send(protocol.NewCameraStopMessage())
}

func (s *Server) cameraHandler() fiber.Handler {
	return websocket.New(s.handleCameraWS)
}

// handleCameraWS attaches the page as the camera publisher and feeds its
// frames into the push source.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	pub := &pagePublisher{conn: c, cfg: s.cfg.Camera}
	logger := s.logger.With("remote", c.RemoteAddr().String())

	s.push.Attach(pub)
	defer func() {
		s.push.Detach(pub)
		logger.Info("camera page disconnected", "frames", pub.frames.Load())
	}()
	logger.Info("camera page connected")

	c.SetReadLimit(maxFrameMessage)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			logger.Debug("bad camera message", "error", err)
			continue
		}
		s.handleCameraMessage(pub, msg)
	}
}

func (s *Server) handleCameraMessage(pub *pagePublisher, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeFrame:
		_, data, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Debug("bad frame", "error", err)
			return
		}
		img, err := frame.Decode(data)
		if err != nil {
			s.logger.Debug("undecodable frame", "error", err)
			return
		}
		pub.frames.Add(1)
		s.push.HandleFrame(img)

	case protocol.TypeCameraError:
		var ce protocol.CameraErrorData
		if err := msg.ParseData(&ce); err != nil {
			ce.Reason = ""
		}
		s.push.HandleError(ce.Reason)

	case protocol.TypePing:
		var ping protocol.PingData
		if err := msg.ParseData(&ping); err == nil {
			_ = pub.send(protocol.NewPongMessage(ping))
		}
	}
}
