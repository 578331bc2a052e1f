package stream

import (
	"fmt"

	"github.com/Shopify/sarama"
)

type Producer struct {
	client sarama.SyncProducer
}

func NewProducer(config *Config) (*Producer, error) {
	conf, err := newSaramaConfig(config)
	if err != nil {
		return nil, err
	}

	cli, err := sarama.NewSyncProducer(config.Addr, conf)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer %v: %w", config.Addr, err)
	}
	return newProducerFrom(cli), nil
}

func newProducerFrom(cli sarama.SyncProducer) *Producer {
	return &Producer{client: cli}
}

// Send writes one record and waits for the broker acknowledgement.
func (p *Producer) Send(topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}

	if _, _, err := p.client.SendMessage(msg); err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.client.Close()
}
