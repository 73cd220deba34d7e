package protocol

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventConnected is emitted when a transport to the backend is attached.
	EventConnected logging.EventType = "protocol.connected"
	// EventFrameReceived is emitted for every decoded inbound frame.
	EventFrameReceived logging.EventType = "protocol.frame_received"
	// EventChannelClosed is emitted when the receive loop stops.
	EventChannelClosed logging.EventType = "protocol.channel_closed"
	// EventSendFailed is emitted when an outbound frame could not be written.
	EventSendFailed logging.EventType = "protocol.send_failed"
)

// ConnectedPayload names the backend endpoint.
type ConnectedPayload struct {
	Address string `json:"address"`
	Framing string `json:"framing"`
}

// FramePayload describes a frame on the wire.
type FramePayload struct {
	Role   string `json:"role"`
	Length int    `json:"length"`
}

// ChannelClosedPayload captures why the receive loop ended.
type ChannelClosedPayload struct {
	Reason   string `json:"reason"`
	Received uint64 `json:"received"`
}

// SendFailedPayload captures a failed write.
type SendFailedPayload struct {
	Role   string `json:"role"`
	Length int    `json:"length"`
	Error  string `json:"error"`
}

var channelActor = logging.EntityRef{ID: "backend", Kind: logging.EntityKindChannel}

// Connected publishes an info event when a transport is attached.
func Connected(ctx context.Context, pub logging.Publisher, payload ConnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventConnected,
		Actor:    channelActor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryProtocol,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// FrameReceived publishes a debug event for an inbound frame.
func FrameReceived(ctx context.Context, pub logging.Publisher, payload FramePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFrameReceived,
		Actor:    channelActor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryProtocol,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ChannelClosed publishes a warning when the receive loop terminates.
func ChannelClosed(ctx context.Context, pub logging.Publisher, payload ChannelClosedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventChannelClosed,
		Actor:    channelActor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryProtocol,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SendFailed publishes a warning when a frame could not be sent.
func SendFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload SendFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSendFailed,
		Tick:     tick,
		Actor:    channelActor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryProtocol,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
