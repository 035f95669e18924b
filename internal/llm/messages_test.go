package llm

import (
	"strings"
	"testing"

	"toolwire/internal/toolcall"
)

func TestToolResponseSuccess(t *testing.T) {
	msg := ToolResponse("call-1", "all good", nil)
	if msg.OfTool == nil {
		t.Fatalf("expected tool message")
	}
	if msg.OfTool.ToolCallID != "call-1" {
		t.Fatalf("unexpected call id: %q", msg.OfTool.ToolCallID)
	}
	if got := msg.OfTool.Content.OfString.Value; got != "all good" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestToolResponseFailureIsStructured(t *testing.T) {
	msg := ToolResponse("call-2", "", &toolcall.ResponseError{Message: "command exited with code 2"})
	if msg.OfTool == nil {
		t.Fatalf("expected tool message")
	}
	content := msg.OfTool.Content.OfString.Value
	if !strings.Contains(content, `"error"`) || !strings.Contains(content, "code 2") {
		t.Fatalf("unexpected content: %q", content)
	}
}
