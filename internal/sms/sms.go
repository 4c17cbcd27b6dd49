package sms

import "context"

// Message is one outbound text message.
type Message struct {
	Phone string `json:"phone"`
	Body  string `json:"message"`
}

// Sender delivers text messages. Implementations either call the gateway
// inline or hand the message to the dispatch queue.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
