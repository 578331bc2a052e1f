package bridge

import (
	"time"

	"github.com/covine/heimdall/plugins/bus"
	"github.com/covine/heimdall/plugins/stream"
)

// connector opens NATS and Kafka sessions with the tunables of config.
type connector struct {
	config *Config
}

func NewFactory(config *Config) Factory {
	return &connector{config: config}
}

func (c *connector) OpenBus(endpoint, name string) (BusConn, error) {
	conn, err := bus.Connect(&bus.Config{
		URL:           endpoint,
		Name:          name,
		ReconnectWait: time.Duration(c.config.Bus.ReconnectWait) * time.Second,
		MaxReconnects: c.config.Bus.MaxReconnects,
		FlushTimeout:  time.Duration(c.config.Bus.FlushTimeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &busConn{conn: conn}, nil
}

func (c *connector) OpenLogProducer(endpoints []string, name string) (Sink, error) {
	p, err := stream.NewProducer(c.streamConfig(endpoints, name))
	if err != nil {
		return nil, err
	}
	return &logProducer{producer: p}, nil
}

func (c *connector) OpenLogConsumer(endpoints []string, topic, name string) (Source, error) {
	consumer, err := stream.NewConsumer(c.streamConfig(endpoints, name), topic)
	if err != nil {
		return nil, err
	}
	return &logSource{consumer: consumer}, nil
}

func (c *connector) streamConfig(endpoints []string, name string) *stream.Config {
	return &stream.Config{
		Addr:           endpoints,
		ClientID:       name,
		Version:        c.config.Log.Version,
		Group:          c.config.Log.Group,
		InitialOffset:  c.config.Log.InitialOffset,
		MaxPollRecords: c.config.Log.MaxPollRecords,
	}
}
