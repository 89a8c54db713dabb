package llm

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	resp    *MessageResponse
	err     error
	lastReq MessageRequest
}

func (s *stubClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func textResp(text string) *MessageResponse {
	return &MessageResponse{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func TestClassifyQuote(t *testing.T) {
	stub := &stubClient{resp: textResp(`{"intencion":"cotizacion","producto":"ibuprofeno 400 mg","cantidad":2}`)}
	a := NewAssistant(stub, "")

	c, err := a.Classify(context.Background(), "me das precio de 2 cajas de ibuprofeno 400", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentQuote, c.Intent)
	assert.Equal(t, "ibuprofeno 400 mg", c.Product)
	assert.Equal(t, 2, c.Quantity)
	assert.Equal(t, DefaultModel, stub.lastReq.Model)
}

// Models sometimes wrap the JSON in prose or a code fence anyway.
func TestClassifyFencedJSON(t *testing.T) {
	stub := &stubClient{resp: textResp("```json\n{\"intencion\":\"conversacion\",\"producto\":\"\",\"cantidad\":0}\n```")}
	a := NewAssistant(stub, "")

	c, err := a.Classify(context.Background(), "hola buenas tardes", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, c.Intent)
	assert.Equal(t, 1, c.Quantity, "non-positive quantity defaults to 1")
}

func TestClassifyUnknownIntent(t *testing.T) {
	stub := &stubClient{resp: textResp(`{"intencion":"reclamo","producto":"","cantidad":1}`)}
	a := NewAssistant(stub, "")

	c, err := a.Classify(context.Background(), "quiero quejarme", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, c.Intent)
}

func TestClassifyNoJSON(t *testing.T) {
	stub := &stubClient{resp: textResp("lo siento, no puedo clasificar eso")}
	a := NewAssistant(stub, "")

	_, err := a.Classify(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestClassifyAPIError(t *testing.T) {
	stub := &stubClient{err: eris.New("overloaded")}
	a := NewAssistant(stub, "")

	_, err := a.Classify(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestGenerateReply(t *testing.T) {
	stub := &stubClient{resp: textResp("  ¡Hola! ¿En qué puedo ayudarte hoy?  ")}
	a := NewAssistant(stub, "claude-sonnet-4-5-20250929")

	reply, err := a.GenerateReply(context.Background(), "hola", []Message{
		{Role: "user", Content: "buenas"},
		{Role: "assistant", Content: "¡Buenas tardes!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿En qué puedo ayudarte hoy?", reply)
	assert.Equal(t, "claude-sonnet-4-5-20250929", stub.lastReq.Model)
	assert.Len(t, stub.lastReq.Messages, 3, "history precedes the new message")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`text before {"a":1} after`))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON(`{"a":{"b":2}}`))
	assert.Equal(t, `{"s":"brace } inside"}`, extractJSON(`{"s":"brace } inside"}`))
	assert.Equal(t, "", extractJSON("no json here"))
	assert.Equal(t, "", extractJSON(`{"unterminated":`))
}
