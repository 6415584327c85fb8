package transport

import "context"

// MenuItem is one tappable choice below a message. ID is what comes back as
// the action payload when the user picks it.
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sender delivers assistant output to one user. Implementations are provided
// per request by the transport layer; the chat service never owns one.
type Sender interface {
	SendText(ctx context.Context, userID string, text string) error
	SendMenu(ctx context.Context, userID string, text string, items []MenuItem) error
}

// OutMessage is one buffered outbound message of a synchronous exchange.
type OutMessage struct {
	Text string     `json:"text"`
	Menu []MenuItem `json:"menu,omitempty"`
}

// Buffer collects outbound messages so an HTTP handler can return them in the
// response body. Not safe for concurrent use; one Buffer per request.
type Buffer struct {
	messages []OutMessage
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) SendText(ctx context.Context, userID string, text string) error {
	b.messages = append(b.messages, OutMessage{Text: text})
	return nil
}

func (b *Buffer) SendMenu(ctx context.Context, userID string, text string, items []MenuItem) error {
	b.messages = append(b.messages, OutMessage{Text: text, Menu: items})
	return nil
}

func (b *Buffer) Messages() []OutMessage {
	return b.messages
}
