package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/genesisvoice/internal/generation"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientControl    MessageType = "client_control"
	TypeGenerationUpdate MessageType = "generation_update"
	TypeSystemEvent      MessageType = "system_event"
	TypeErrorEvent       MessageType = "error_event"
)

// Client control actions.
const (
	ActionCancel = "cancel"
	ActionPing   = "ping"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientControl struct {
	Type         MessageType `json:"type"`
	GenerationID string      `json:"generation_id"`
	Action       string      `json:"action"`
}

// GenerationUpdate carries one snapshot of a generation run. Final is set on
// the terminal snapshot, after which the server closes the stream.
type GenerationUpdate struct {
	Type       MessageType         `json:"type"`
	Generation generation.Snapshot `json:"generation"`
	Final      bool                `json:"final"`
}

type SystemEvent struct {
	Type         MessageType `json:"type"`
	GenerationID string      `json:"generation_id,omitempty"`
	Code         string      `json:"code"`
	Detail       string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type         MessageType `json:"type"`
	GenerationID string      `json:"generation_id,omitempty"`
	Code         string      `json:"code"`
	Detail       string      `json:"detail"`
}

func NewGenerationUpdate(snap generation.Snapshot) GenerationUpdate {
	return GenerationUpdate{
		Type:       TypeGenerationUpdate,
		Generation: snap,
		Final:      snap.State.Terminal(),
	}
}

func NewErrorEvent(generationID, code, detail string) ErrorEvent {
	return ErrorEvent{Type: TypeErrorEvent, GenerationID: generationID, Code: code, Detail: detail}
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		msg.Action = strings.TrimSpace(msg.Action)
		switch msg.Action {
		case ActionCancel, ActionPing:
		default:
			return nil, fmt.Errorf("invalid client_control action %q", msg.Action)
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
