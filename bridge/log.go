package bridge

import (
	"context"

	"github.com/covine/heimdall/plugins/stream"
)

// logProducer carries the tag in the record key.
type logProducer struct {
	producer *stream.Producer
}

func (p *logProducer) Send(_ context.Context, m Message) error {
	var key []byte
	if len(m.Tag) > 0 {
		key = []byte(m.Tag)
	}
	return p.producer.Send(m.Subject, key, m.Payload)
}

func (p *logProducer) Close() error {
	return p.producer.Close()
}

type logSource struct {
	consumer *stream.Consumer
}

// Fetch turns every polled record set into one batch; finishing a batch marks
// its records consumed.
func (s *logSource) Fetch(ctx context.Context) ([]Batch, error) {
	sets, err := s.consumer.Poll(ctx)
	if err != nil {
		return nil, err
	}
	return recordBatches(sets, s.consumer.MarkConsumed), nil
}

func (s *logSource) Commit() error {
	return s.consumer.Commit()
}

func (s *logSource) Close() error {
	return s.consumer.Close()
}

func recordBatches(sets []*stream.RecordSet, markConsumed func(*stream.RecordSet)) []Batch {
	batches := make([]Batch, 0, len(sets))
	for _, rs := range sets {
		rs := rs
		messages := make([]Message, 0, len(rs.Records))
		for _, r := range rs.Records {
			messages = append(messages, Message{
				Subject: r.Topic,
				Payload: r.Value,
				Tag:     string(r.Key),
			})
		}
		batches = append(batches, Batch{
			Messages: messages,
			Done:     func() { markConsumed(rs) },
		})
	}
	return batches
}
