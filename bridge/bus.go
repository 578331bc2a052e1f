package bridge

import (
	"context"
	"errors"

	"github.com/covine/heimdall/plugins/bus"
)

// busConn carries the tag in the message reply subject.
type busConn struct {
	conn *bus.Conn
	sub  *bus.Subscription
}

func (c *busConn) Subscribe(subject string) (Source, error) {
	if c.sub != nil {
		return nil, errors.New("bus connection already subscribed")
	}
	sub, err := c.conn.Subscribe(subject)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return &busSource{sub: sub}, nil
}

func (c *busConn) Send(_ context.Context, m Message) error {
	return c.conn.Publish(m.Subject, m.Tag, m.Payload)
}

func (c *busConn) Close() error {
	c.conn.Close()
	return nil
}

type busSource struct {
	sub *bus.Subscription
}

// Fetch returns one message per call, in subscription order.
func (s *busSource) Fetch(ctx context.Context) ([]Batch, error) {
	msg, err := s.sub.Next(ctx)
	if err != nil {
		return nil, err
	}
	return []Batch{{Messages: []Message{{
		Subject: msg.Subject,
		Payload: msg.Data,
		Tag:     msg.Reply,
	}}}}, nil
}

func (s *busSource) Commit() error {
	return nil
}

func (s *busSource) Close() error {
	return s.sub.Unsubscribe()
}
