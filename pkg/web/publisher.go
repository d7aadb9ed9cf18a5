package web

import (
	"log/slog"

	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/hub"
	"github.com/teslashibe/go-lookout/pkg/protocol"
)

// StatusPublisher forwards loop status to a hub as retained status
// messages, so pages that connect later see the current state.
type StatusPublisher struct {
	hub    *hub.Hub
	logger *slog.Logger
}

// NewStatusPublisher returns a sink for assistant.WithSink.
func NewStatusPublisher(h *hub.Hub, logger *slog.Logger) *StatusPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusPublisher{hub: h, logger: logger.With("component", "web.status")}
}

// PublishStatus implements assistant.StatusSink.
func (p *StatusPublisher) PublishStatus(s assistant.Status) {
	msg, err := protocol.NewStatusMessage(s)
	if err != nil {
		p.logger.Error("encode status", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		p.logger.Error("encode status", "error", err)
		return
	}
	p.hub.Retain(data)
}

var _ assistant.StatusSink = (*StatusPublisher)(nil)
