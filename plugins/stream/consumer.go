package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Shopify/sarama"
)

const defaultMaxPollRecords = 500

var ErrClosed = errors.New("log consumer closed")

type offsetStore interface {
	NextOffset(topic string, partition int32) (int64, error)
	MarkOffset(topic string, partition int32, offset int64)
	Commit() error
	Close() error
}

// Consumer reads every partition of one topic and tracks consumption through
// the group's committed offsets. Offsets only move on MarkConsumed and are only
// written to the broker on Commit.
type Consumer struct {
	topic   string
	maxPoll int

	client   sarama.Client
	consumer sarama.Consumer
	offsets  offsetStore
	pcs      []sarama.PartitionConsumer

	records chan *sarama.ConsumerMessage
	errs    chan error
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

type topicPartition struct {
	topic     string
	partition int32
}

func NewConsumer(config *Config, topic string) (*Consumer, error) {
	if len(config.Group) == 0 {
		return nil, errors.New("require consumer group")
	}

	conf, err := newSaramaConfig(config)
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(config.Addr, conf)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer %v: %w", config.Addr, err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	om, err := sarama.NewOffsetManagerFromClient(config.Group, client)
	if err != nil {
		_ = consumer.Close()
		_ = client.Close()
		return nil, err
	}

	c, err := newConsumerFrom(consumer, newGroupOffsets(om), topic, config.MaxPollRecords)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	c.client = client
	return c, nil
}

func newConsumerFrom(consumer sarama.Consumer, offsets offsetStore, topic string, maxPoll int) (*Consumer, error) {
	if maxPoll <= 0 {
		maxPoll = defaultMaxPollRecords
	}

	partitions, err := consumer.Partitions(topic)
	if err != nil {
		_ = offsets.Close()
		_ = consumer.Close()
		return nil, fmt.Errorf("list partitions of %s: %w", topic, err)
	}

	c := &Consumer{
		topic:    topic,
		maxPoll:  maxPoll,
		consumer: consumer,
		offsets:  offsets,
		records:  make(chan *sarama.ConsumerMessage, maxPoll),
		errs:     make(chan error, len(partitions)),
		done:     make(chan struct{}),
	}

	for _, p := range partitions {
		next, err := offsets.NextOffset(topic, p)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("fetch offset of %s/%d: %w", topic, p, err)
		}

		pc, err := consumer.ConsumePartition(topic, p, next)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("consume %s/%d: %w", topic, p, err)
		}
		c.pcs = append(c.pcs, pc)

		c.wg.Add(2)
		go c.forward(pc)
		go c.forwardErrors(pc)
	}

	return c, nil
}

func (c *Consumer) forward(pc sarama.PartitionConsumer) {
	defer c.wg.Done()
	for msg := range pc.Messages() {
		select {
		case c.records <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Consumer) forwardErrors(pc sarama.PartitionConsumer) {
	defer c.wg.Done()
	for err := range pc.Errors() {
		select {
		case c.errs <- err:
		case <-c.done:
			return
		}
	}
}

// Poll blocks until at least one record is available, then returns it together
// with whatever else is already buffered, up to the configured maximum.
func (c *Consumer) Poll(ctx context.Context) ([]*RecordSet, error) {
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	var first *sarama.ConsumerMessage
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	case err := <-c.errs:
		return nil, fmt.Errorf("poll %s: %w", c.topic, err)
	case first = <-c.records:
	}

	batch := []*sarama.ConsumerMessage{first}
drain:
	for len(batch) < c.maxPoll {
		select {
		case m := <-c.records:
			batch = append(batch, m)
		default:
			break drain
		}
	}

	return group(batch), nil
}

// MarkConsumed records that every record of rs has been processed.
func (c *Consumer) MarkConsumed(rs *RecordSet) {
	last := rs.last()
	if last == nil {
		return
	}
	c.offsets.MarkOffset(rs.Topic, rs.Partition, last.Offset+1)
}

func (c *Consumer) Commit() error {
	return c.offsets.Commit()
}

func (c *Consumer) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		for _, pc := range c.pcs {
			pc.AsyncClose()
		}
		c.wg.Wait()

		if e := c.offsets.Close(); e != nil {
			err = e
		}
		if e := c.consumer.Close(); e != nil && err == nil {
			err = e
		}
		if c.client != nil {
			if e := c.client.Close(); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

func group(batch []*sarama.ConsumerMessage) []*RecordSet {
	var sets []*RecordSet
	index := make(map[topicPartition]*RecordSet)
	for _, m := range batch {
		tp := topicPartition{topic: m.Topic, partition: m.Partition}
		rs, ok := index[tp]
		if !ok {
			rs = &RecordSet{Topic: m.Topic, Partition: m.Partition}
			index[tp] = rs
			sets = append(sets, rs)
		}
		rs.Records = append(rs.Records, &Record{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
		})
	}
	return sets
}
