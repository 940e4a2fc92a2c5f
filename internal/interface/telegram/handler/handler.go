// Package handler contains Telegram command handlers. Handlers take a
// parsed Request and return a Response; sending it is the bot's job.
package handler

import (
	"context"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// Request is a parsed bot command.
type Request struct {
	// Source is the message that carried the command.
	Source cup.MessageRef

	// From is the sender.
	From        cup.PlayerID
	DisplayName string

	// Args is the text after the command.
	Args string

	SentAt time.Time
}

// Response is what the bot sends back. Photo, when set, is sent as a PNG
// with Text as its caption.
type Response struct {
	Text      string
	Photo     []byte
	PhotoName string
}

// Text returns a plain-text response.
func Text(s string) *Response {
	return &Response{Text: s}
}

// Handler handles one command.
type Handler interface {
	Handle(ctx context.Context, req Request) (*Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (*Response, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
