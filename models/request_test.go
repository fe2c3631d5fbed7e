package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboundRequest(t *testing.T) {
	req := NewOutboundRequest("question", " system ", GenerationOptions{ForceJSON: true})

	require.Len(t, req.Contents, 1)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, []Part{{Text: "system"}, {Text: "question"}}, req.Contents[0].Parts)
	assert.True(t, req.Options.ForceJSON)

	plain := NewOutboundRequest("question", "", GenerationOptions{})
	assert.Equal(t, []Part{{Text: "question"}}, plain.Contents[0].Parts)
}

func TestGenerateRequest_AliasPrecedence(t *testing.T) {
	var req GenerateRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"text": "from text",
		"message": "from message",
		"instructions": "from instructions",
		"system_prompt": "from snake"
	}`), &req))

	assert.Equal(t, "from message", req.UserText())
	assert.Equal(t, "from snake", req.SystemText())

	assert.Equal(t, "", (&GenerateRequest{Prompt: "  "}).UserText())
}
