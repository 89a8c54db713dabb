package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/ocr"
	"github.com/soprim/pricebot/internal/pricing"
	"github.com/soprim/pricebot/internal/store"
	"github.com/soprim/pricebot/internal/textnorm"
	"github.com/soprim/pricebot/pkg/llm"
	"github.com/soprim/pricebot/pkg/whatsapp"
)

const (
	ocrFailedReply  = "He recibido tu imagen pero no pude extraer texto de ella. ¿Podrías enviar tu consulta en formato texto?"
	generalFallback = "Gracias por tu mensaje. ¿Hay algún medicamento o producto que te interese cotizar?"
)

// Resolver finds offers for a product query across the catalog and the
// external sources.
type Resolver interface {
	Resolve(ctx context.Context, query model.ProductQuery) model.OfferBundle
}

// Classifier is the language-model surface the handler needs. *llm.Assistant
// satisfies it.
type Classifier interface {
	Classify(ctx context.Context, message string, history []llm.Message) (*llm.Classification, error)
	GenerateReply(ctx context.Context, message string, history []llm.Message) (string, error)
}

// Options tune per-user gating and context behavior.
type Options struct {
	// AllowedNumbers restricts inbound numbers while on the sandbox.
	// Empty allows everyone.
	AllowedNumbers []string
	// RateLimit and RateBurst bound how fast one user can trigger source
	// dispatch.
	RateLimit rate.Limit
	RateBurst int
	// HistoryLimit is how many stored turns feed the model calls.
	HistoryLimit int
	// ContextThreshold guards follow-up quantity requests: the resolved
	// offer must score at least this against the remembered product.
	ContextThreshold float64
}

// Handler drives one inbound WhatsApp message through classification,
// resolution, and reply.
type Handler struct {
	resolver  Resolver
	assistant Classifier
	sender    whatsapp.Client
	store     store.Store
	extractor ocr.Extractor
	pricer    *pricing.Engine
	opts      Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	allowed  map[string]struct{}
}

// New wires a Handler. extractor may be nil when OCR is disabled.
func New(resolver Resolver, assistant Classifier, sender whatsapp.Client, st store.Store, extractor ocr.Extractor, pricer *pricing.Engine, opts Options) *Handler {
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Every(2 * time.Second)
	}
	if opts.RateBurst < 1 {
		opts.RateBurst = 3
	}
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = 10
	}
	if opts.ContextThreshold <= 0 {
		opts.ContextThreshold = 0.7
	}
	allowed := make(map[string]struct{}, len(opts.AllowedNumbers))
	for _, n := range opts.AllowedNumbers {
		allowed[whatsapp.StripNumber(n)] = struct{}{}
	}
	return &Handler{
		resolver:  resolver,
		assistant: assistant,
		sender:    sender,
		store:     st,
		extractor: extractor,
		pricer:    pricer,
		opts:      opts,
		limiters:  make(map[string]*rate.Limiter),
		allowed:   allowed,
	}
}

// Handle processes one inbound message end to end. Messages from numbers
// outside the allow list or over the rate limit are dropped without error.
func (h *Handler) Handle(ctx context.Context, msg whatsapp.InboundMessage) error {
	from := whatsapp.StripNumber(msg.From)
	if from == "" {
		return eris.New("handler: inbound message without sender")
	}
	if len(h.allowed) > 0 {
		if _, ok := h.allowed[from]; !ok {
			zap.L().Warn("number not in allow list, dropping", zap.String("from", from))
			return nil
		}
	}
	if !h.limiter(from).Allow() {
		zap.L().Warn("rate limited, dropping message", zap.String("from", from))
		return nil
	}

	body := strings.TrimSpace(msg.Body)
	if msg.HasMedia() && h.extractor != nil {
		text, err := h.extractor.ExtractText(ctx, msg.MediaURLs)
		switch {
		case err != nil:
			zap.L().Warn("ocr extraction failed", zap.Error(err))
			if body == "" {
				return h.reply(ctx, from, msg.Body, ocrFailedReply)
			}
		case text != "" && body == "":
			body = text
		case text != "":
			body = body + "\n\n[Texto de la imagen: " + text + "]"
		}
	}
	if body == "" {
		return nil
	}

	history := h.loadHistory(ctx, from)
	cls := h.classify(ctx, body, history)

	if cls.Intent == llm.IntentQuote {
		return h.handleQuote(ctx, from, body, cls, history)
	}
	return h.handleGeneral(ctx, from, body, history)
}

func (h *Handler) limiter(user string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[user]
	if !ok {
		l = rate.NewLimiter(h.opts.RateLimit, h.opts.RateBurst)
		h.limiters[user] = l
	}
	return l
}

func (h *Handler) loadHistory(ctx context.Context, user string) []llm.Message {
	turns, err := h.store.History(ctx, user, h.opts.HistoryLimit)
	if err != nil {
		zap.L().Warn("history load failed, continuing without context",
			zap.String("user", user), zap.Error(err))
		return nil
	}
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == store.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Body})
	}
	return msgs
}

// classify asks the model first and falls back to the keyword detector, so
// an LLM outage degrades the bot to pattern matching instead of silence.
func (h *Handler) classify(ctx context.Context, body string, history []llm.Message) *llm.Classification {
	cls, err := h.assistant.Classify(ctx, body, history)
	if err == nil && (cls.Intent != llm.IntentQuote || cls.Product != "") {
		return cls
	}
	if err != nil {
		zap.L().Warn("classification failed, using keyword detector", zap.Error(err))
	}
	if product, ok := DetectProduct(body); ok {
		qty := 1
		if cls != nil && cls.Quantity > 1 {
			qty = cls.Quantity
		}
		return &llm.Classification{Intent: llm.IntentQuote, Product: product, Quantity: qty}
	}
	if cls != nil {
		return cls
	}
	return &llm.Classification{Intent: llm.IntentGeneral, Quantity: 1}
}

func (h *Handler) handleQuote(ctx context.Context, from, body string, cls *llm.Classification, history []llm.Message) error {
	product := strings.TrimSpace(cls.Product)
	followUp := false
	if product == "" {
		// Quantity follow-up: "dame 3" after a quote. The last logged
		// quote names the product being talked about.
		product = h.lastQuotedProduct(ctx, from)
		followUp = product != ""
	}
	if product == "" {
		return h.handleGeneral(ctx, from, body, history)
	}

	quantity := cls.Quantity
	if quantity < 1 {
		quantity = 1
	}

	query := textnorm.NewQuery(product)
	bundle := h.resolver.Resolve(ctx, query)

	if followUp && !bundle.Empty() && !h.matchesContext(query, bundle) {
		zap.L().Info("follow-up resolution drifted from context product, discarding",
			zap.String("product", product))
		bundle = model.OfferBundle{}
	}

	if bundle.Empty() {
		reply := fmt.Sprintf("Lo siento, no encontré disponibilidad de %s. ¿Te gustaría que busque alternativas similares?", product)
		return h.reply(ctx, from, body, reply)
	}

	h.logQuote(ctx, from, body, product, bundle)
	return h.reply(ctx, from, body, RenderBundle(h.pricer, bundle, quantity))
}

// matchesContext checks that a follow-up's resolved offer is still the
// product the conversation was about.
func (h *Handler) matchesContext(query model.ProductQuery, bundle model.OfferBundle) bool {
	offer := bundle.BestPrice
	if offer == nil {
		offer = bundle.Immediate
	}
	score := textnorm.Similarity(query.Normalized, textnorm.NormalizeProduct(offer.Name))
	return score >= h.opts.ContextThreshold
}

func (h *Handler) handleGeneral(ctx context.Context, from, body string, history []llm.Message) error {
	reply, err := h.assistant.GenerateReply(ctx, body, history)
	if err != nil {
		zap.L().Warn("reply generation failed, sending fallback", zap.Error(err))
		reply = generalFallback
	}
	return h.reply(ctx, from, body, reply)
}

// reply persists both turns around the outbound send. Store failures are
// logged and do not block the customer's answer.
func (h *Handler) reply(ctx context.Context, to, inbound, outbound string) error {
	if _, err := h.store.AppendTurn(ctx, to, store.RoleUser, inbound); err != nil {
		zap.L().Warn("failed to persist inbound turn", zap.Error(err))
	}
	if _, err := h.sender.SendText(ctx, to, outbound); err != nil {
		return eris.Wrap(err, "handler: send reply")
	}
	if _, err := h.store.AppendTurn(ctx, to, store.RoleAssistant, outbound); err != nil {
		zap.L().Warn("failed to persist outbound turn", zap.Error(err))
	}
	return nil
}

func (h *Handler) lastQuotedProduct(ctx context.Context, user string) string {
	recs, err := h.store.ListQuotes(ctx, store.QuoteFilter{UserID: user, Limit: 1})
	if err != nil || len(recs) == 0 {
		return ""
	}
	return recs[0].Product
}

func (h *Handler) logQuote(ctx context.Context, user, query, product string, bundle model.OfferBundle) {
	offer := bundle.BestPrice
	if offer == nil {
		offer = bundle.Immediate
	}
	sell, err := h.pricer.SellPrice(offer.Source, offer.PriceNumeric)
	if err != nil {
		sell = 0
	}
	rec := store.QuoteRecord{
		UserID:       user,
		Query:        query,
		Product:      product,
		Source:       offer.Source,
		PriceText:    h.pricer.Quote(offer.Source, offer.PriceNumeric),
		PriceNumeric: sell,
		Dual:         bundle.Dual,
	}
	if _, err := h.store.LogQuote(ctx, rec); err != nil {
		zap.L().Warn("failed to log quote", zap.Error(err))
	}
}
