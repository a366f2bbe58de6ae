// Package proto defines the wire messages exchanged between the coordination
// core and browser clients over the transport channel.
package proto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MsgType string

const (
	MsgTypeSubscribe           MsgType = "subscribe"             // Join a session channel
	MsgTypeUnsubscribe         MsgType = "unsubscribe"           // Leave a session channel
	MsgTypeSessionStateUpdated MsgType = "session_state_updated" // Workflow state changed
	MsgTypeUIRender            MsgType = "ui_render"             // Agent asks the browser to render UI
	MsgTypeUIResponse          MsgType = "ui_response"           // Browser answers a rendered UI
)

// ChannelMsg subscribes to or unsubscribes from a session channel.
// Channel membership is server-enforced; the client does not track it.
type ChannelMsg struct {
	Type    MsgType `json:"type"`
	Channel string  `json:"channel"`
}

// SessionStateUpdatedMsg announces a new workflow state to observers.
// It carries the persisted session record fields plus the resolved state name.
type SessionStateUpdatedMsg struct {
	Type        MsgType        `json:"type"`
	Project     string         `json:"project"`
	Session     string         `json:"session"`
	State       string         `json:"state"`
	DisplayName string         `json:"displayName,omitempty"`
	CurrentItem *int           `json:"currentItem,omitempty"`
	Items       []any          `json:"items,omitempty"`
	SessionType string         `json:"sessionType,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// UIRenderMsg asks browser clients to render a UI component.
type UIRenderMsg struct {
	Type      MsgType        `json:"type"`
	UIID      string         `json:"uiId"`
	UI        map[string]any `json:"ui"`
	Blocking  bool           `json:"blocking"`
	Timestamp time.Time      `json:"timestamp"`
}

// UIResponseMsg carries a browser response to a rendered UI component.
type UIResponseMsg struct {
	Type        MsgType        `json:"type"`
	ComponentID string         `json:"componentId"`
	ActionID    string         `json:"actionId"`
	Data        map[string]any `json:"data,omitempty"`
}

// NewUIRenderMsg builds a ui_render message with a fresh component id.
func NewUIRenderMsg(ui map[string]any, blocking bool) *UIRenderMsg {
	return &UIRenderMsg{
		Type:      MsgTypeUIRender,
		UIID:      GenerateID(),
		UI:        ui,
		Blocking:  blocking,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelMsg builds a subscribe or unsubscribe message.
func NewChannelMsg(msgType MsgType, channel string) *ChannelMsg {
	return &ChannelMsg{Type: msgType, Channel: channel}
}

// GenerateID returns a fresh unique message/component id.
func GenerateID() string {
	return uuid.New().String()
}

// PeekType decodes only the type tag of a raw message so the receive path can
// dispatch without knowing the full shape.
func PeekType(data []byte) (MsgType, error) {
	var envelope struct {
		Type MsgType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("failed to decode message type: %w", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no type tag")
	}
	return envelope.Type, nil
}

// Marshal encodes any wire message as JSON.
func Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a raw frame into the given wire message.
func Unmarshal(data []byte, msg any) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return nil
}
