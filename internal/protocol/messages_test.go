package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/antoniostano/genesisvoice/internal/generation"
)

func TestParseClientMessageCancel(t *testing.T) {
	raw := []byte(`{"type":"client_control","generation_id":"g1","action":"cancel"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	control, ok := msg.(ClientControl)
	if !ok {
		t.Fatalf("message type = %T, want ClientControl", msg)
	}
	if control.GenerationID != "g1" || control.Action != ActionCancel {
		t.Fatalf("unexpected client control: %+v", control)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsUnknownAction(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"client_control","action":"pause"}`))
	if err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid envelope")
	}
}

func TestGenerationUpdateMarksFinal(t *testing.T) {
	running := NewGenerationUpdate(generation.Snapshot{ID: "g1", State: generation.StatePolling})
	if running.Final {
		t.Fatalf("polling snapshot must not be final")
	}

	done := NewGenerationUpdate(generation.Snapshot{ID: "g1", State: generation.StateTimedOut})
	if !done.Final {
		t.Fatalf("timed_out snapshot must be final")
	}

	raw, err := json.Marshal(done)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["type"] != string(TypeGenerationUpdate) {
		t.Fatalf("type = %v, want %q", decoded["type"], TypeGenerationUpdate)
	}
	gen, _ := decoded["generation"].(map[string]any)
	if gen["state"] != "timed_out" {
		t.Fatalf("generation.state = %v, want timed_out", gen["state"])
	}
}
