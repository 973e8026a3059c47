package notification

import "context"

// Message is a rendered notification, transport-agnostic.
type Message struct {
	Title  string  `json:"title"`
	Body   string  `json:"body,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Sender delivers a message to a destination handle owned by the chat
// gateway (a webhook URL, a channel id, ...). The sender never creates
// destinations, it only delivers to handles it is given.
type Sender interface {
	Send(ctx context.Context, destination string, msg Message) error
}
