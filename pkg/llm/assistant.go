package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Message intents the classifier distinguishes.
const (
	IntentQuote   = "cotizacion"   // customer wants a price for a product
	IntentGeneral = "conversacion" // greetings, questions, anything else
)

const classifySystem = `Eres el clasificador de mensajes de una farmacia que atiende por WhatsApp.
Clasifica el mensaje del cliente y responde UNICAMENTE con un objeto JSON, sin texto adicional:
{"intencion": "cotizacion" | "conversacion", "producto": "<nombre del producto con su dosis, o cadena vacia>", "cantidad": <numero de piezas solicitadas, 1 si no se menciona>}
Usa "cotizacion" cuando el cliente pregunta precio o disponibilidad de un medicamento o producto.
Usa "conversacion" para saludos, seguimiento de pedidos y cualquier otro tema.`

const replySystem = `Eres el asistente comercial de una farmacia que atiende por WhatsApp.
Responde en espanol, breve y cordial, siempre orientado a la venta.
Solo hablas de los productos y servicios de la farmacia. No das consejo medico:
si el cliente pide diagnostico o dosificacion, recomienda consultar a su medico.
Nunca inventes precios ni existencias.`

// Classification is the structured reading of one customer message.
type Classification struct {
	Intent   string `json:"intencion"`
	Product  string `json:"producto"`
	Quantity int    `json:"cantidad"`
}

// Assistant runs the two model calls the bot needs.
type Assistant struct {
	client Client
	model  string
}

// NewAssistant creates an Assistant. An empty model selects DefaultModel.
func NewAssistant(client Client, model string) *Assistant {
	if model == "" {
		model = DefaultModel
	}
	return &Assistant{client: client, model: model}
}

// Classify labels a customer message with an intent and, for quotes, the
// product and quantity asked for. The model is instructed to answer with
// bare JSON; fenced or chatty answers are salvaged by extracting the first
// JSON object.
func (a *Assistant) Classify(ctx context.Context, message string, history []Message) (*Classification, error) {
	msgs := append(append([]Message(nil), history...), Message{Role: "user", Content: message})

	resp, err := a.client.CreateMessage(ctx, MessageRequest{
		Model:     a.model,
		MaxTokens: 256,
		System:    classifySystem,
		Messages:  msgs,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: classify")
	}

	payload := extractJSON(resp.Text())
	if payload == "" {
		return nil, eris.Errorf("llm: classifier returned no JSON: %q", resp.Text())
	}

	var c Classification
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, eris.Wrapf(err, "llm: parse classification %q", payload)
	}

	if c.Intent != IntentQuote && c.Intent != IntentGeneral {
		zap.L().Debug("classifier produced unknown intent, treating as conversation",
			zap.String("intent", c.Intent),
		)
		c.Intent = IntentGeneral
	}
	if c.Quantity <= 0 {
		c.Quantity = 1
	}
	return &c, nil
}

// GenerateReply writes the conversational answer for non-quote messages.
func (a *Assistant) GenerateReply(ctx context.Context, message string, history []Message) (string, error) {
	msgs := append(append([]Message(nil), history...), Message{Role: "user", Content: message})

	resp, err := a.client.CreateMessage(ctx, MessageRequest{
		Model:     a.model,
		MaxTokens: 1024,
		System:    replySystem,
		Messages:  msgs,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: generate reply")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("llm: empty reply")
	}
	return text, nil
}

// extractJSON returns the first balanced top-level JSON object in text, or
// empty when none is present.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
