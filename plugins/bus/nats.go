package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type Config struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
	FlushTimeout  time.Duration
}

// Msg is a message received from the bus.
// Reply is empty when the publisher did not set one.
type Msg struct {
	Subject string
	Reply   string
	Data    []byte
}

type Conn struct {
	config *Config
	nc     *nats.Conn
}

type Subscription struct {
	sub *nats.Subscription
}

var ErrClosed = errors.New("bus connection closed")

func (c *Config) options() []nats.Option {
	opts := []nats.Option{nats.Name(c.Name)}
	if c.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(c.ReconnectWait))
	}
	if c.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(c.MaxReconnects))
	}
	return opts
}

// Connect dials the bus once, no retry on the initial connect.
func Connect(config *Config) (*Conn, error) {
	nc, err := nats.Connect(config.URL, config.options()...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", config.URL, err)
	}
	return &Conn{config: config, nc: nc}, nil
}

// Subscribe opens a synchronous subscription whose pending buffer is unbounded,
// so a slow reader never makes the server drop messages on our side.
func (c *Conn) Subscribe(subject string) (*Subscription, error) {
	sub, err := c.nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	if err := sub.SetPendingLimits(-1, -1); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("set pending limits on %s: %w", subject, err)
	}
	return &Subscription{sub: sub}, nil
}

// Publish sends data on subject, carrying reply as the back-reference.
func (c *Conn) Publish(subject, reply string, data []byte) error {
	err := c.nc.PublishMsg(&nats.Msg{
		Subject: subject,
		Reply:   reply,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (c *Conn) Close() {
	if c.nc.IsClosed() {
		return
	}
	if c.config.FlushTimeout > 0 {
		_ = c.nc.FlushTimeout(c.config.FlushTimeout)
	}
	c.nc.Close()
}

// Next blocks until a message arrives or ctx is done.
func (s *Subscription) Next(ctx context.Context) (*Msg, error) {
	m, err := s.sub.NextMsgWithContext(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return fromNats(m), nil
}

func (s *Subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func fromNats(m *nats.Msg) *Msg {
	return &Msg{
		Subject: m.Subject,
		Reply:   m.Reply,
		Data:    m.Data,
	}
}
