package bridge

import (
	"context"
)

// Message is the transport independent form of a relayed message.
// An empty Tag means the message carries no back-reference.
type Message struct {
	Subject string
	Payload []byte
	Tag     string
}

// Batch is a group of messages the source wants acknowledged together.
// Done is called once every message of the batch has been handled.
type Batch struct {
	Messages []Message
	Done     func()
}

// Source yields inbound messages. Fetch blocks until at least one message is
// available or ctx ends. Commit is called once after every fetched batch has
// been handled.
type Source interface {
	Fetch(ctx context.Context) ([]Batch, error)
	Commit() error
	Close() error
}

type Sink interface {
	Send(ctx context.Context, m Message) error
	Close() error
}

// BusConn is a live bus session: it can publish, and subscribe exactly once.
type BusConn interface {
	Sink
	Subscribe(subject string) (Source, error)
}

// Factory opens broker sessions. Every call dials a new session, nothing is
// shared between callers.
type Factory interface {
	OpenBus(endpoint, name string) (BusConn, error)
	OpenLogProducer(endpoints []string, name string) (Sink, error)
	OpenLogConsumer(endpoints []string, topic, name string) (Source, error)
}
