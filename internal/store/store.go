// Package store persists WhatsApp conversation turns and the quotes the
// assistant hands out, on SQLite for single-host deployments or Postgres
// when the pharmacy runs more than one bot instance.
package store

import (
	"context"
	"time"

	"github.com/soprim/pricebot/internal/model"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation, either direction.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// QuoteRecord is one price quote delivered to a customer, kept for margin
// audits and demand analysis.
type QuoteRecord struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Query        string       `json:"query"`
	Product      string       `json:"product"`
	Source       model.Source `json:"source"`
	PriceText    string       `json:"price_text"`
	PriceNumeric float64      `json:"price_numeric"`
	Dual         bool         `json:"dual"`
	CreatedAt    time.Time    `json:"created_at"`
}

// QuoteFilter specifies criteria for listing quotes.
type QuoteFilter struct {
	UserID string       `json:"user_id,omitempty"`
	Source model.Source `json:"source,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// Store defines the persistence interface for the assistant.
type Store interface {
	// Conversation history
	AppendTurn(ctx context.Context, userID, role, body string) (*Turn, error)
	// History returns the most recent limit turns for a user in
	// chronological order.
	History(ctx context.Context, userID string, limit int) ([]Turn, error)

	// Quote log
	LogQuote(ctx context.Context, rec QuoteRecord) (*QuoteRecord, error)
	ListQuotes(ctx context.Context, filter QuoteFilter) ([]QuoteRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
