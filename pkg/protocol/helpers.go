package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// ErrUnexpectedType is returned when a decoder gets the wrong message.
var ErrUnexpectedType = errors.New("protocol: unexpected message type")

// NewFrameMessage creates a frame message from encoded image bytes
func NewFrameMessage(width, height int, format string, data []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  format,
		Data:    base64.StdEncoding.EncodeToString(data),
		FrameID: frameID,
	})
}

// NewCameraErrorMessage creates a camera_error message
func NewCameraErrorMessage(reason, message string) (*Message, error) {
	return NewMessage(TypeCameraError, CameraErrorData{Reason: reason, Message: message})
}

// NewCameraStartMessage creates a camera_start message
func NewCameraStartMessage(start CameraStartData) (*Message, error) {
	return NewMessage(TypeCameraStart, start)
}

// NewCameraStopMessage creates a camera_stop message
func NewCameraStopMessage() (*Message, error) {
	return NewMessage(TypeCameraStop, nil)
}

// NewStatusMessage wraps an assistant status snapshot
func NewStatusMessage(status any) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewPongMessage answers a ping
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}

// DecodeFrame extracts the frame header and decoded image bytes
func DecodeFrame(m *Message) (FrameData, []byte, error) {
	if m.Type != TypeFrame {
		return FrameData{}, nil, fmt.Errorf("%w: %s", ErrUnexpectedType, m.Type)
	}

	var fd FrameData
	if err := m.ParseData(&fd); err != nil {
		return FrameData{}, nil, fmt.Errorf("frame data: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(fd.Data)
	if err != nil {
		return fd, nil, fmt.Errorf("frame payload: %w", err)
	}
	if len(data) == 0 {
		return fd, nil, errors.New("frame payload: empty")
	}
	return fd, data, nil
}
