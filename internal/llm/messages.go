// Package llm bridges normalized tool outcomes into the chat protocol
// consumed by the driving model.
package llm

import (
	"encoding/json"
	"errors"

	"github.com/openai/openai-go/v3"

	"toolwire/internal/toolcall"
)

// ToolResponse converts a Finish result into the tool message appended
// to the conversation. Failures become {"error": ...} payloads so the
// model sees a structured failure rather than bare prose.
func ToolResponse(callID string, text string, err error) openai.ChatCompletionMessageParamUnion {
	if err == nil {
		return openai.ToolMessage(text, callID)
	}
	message := err.Error()
	var respErr *toolcall.ResponseError
	if errors.As(err, &respErr) {
		message = respErr.Message
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		return openai.ToolMessage(message, callID)
	}
	return openai.ToolMessage(string(payload), callID)
}
