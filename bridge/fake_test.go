package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errSourceDone = errors.New("source exhausted")

type fetch struct {
	batches []Batch
	err     error
}

// fakeSource hands out queued fetches. Once the queue is closed Fetch fails
// with errSourceDone; while it is open and empty Fetch blocks until ctx ends.
type fakeSource struct {
	fetches chan fetch

	mu        sync.Mutex
	commits   int
	commitErr error
	closed    int
}

func newFakeSource(buffer int) *fakeSource {
	return &fakeSource{fetches: make(chan fetch, buffer)}
}

func (s *fakeSource) push(batches ...Batch) {
	s.fetches <- fetch{batches: batches}
}

func (s *fakeSource) fail(err error) {
	s.fetches <- fetch{err: err}
}

func (s *fakeSource) Fetch(ctx context.Context) ([]Batch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f, ok := <-s.fetches:
		if !ok {
			return nil, errSourceDone
		}
		return f.batches, f.err
	}
}

func (s *fakeSource) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return s.commitErr
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSource) commitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *fakeSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeSink struct {
	mu      sync.Mutex
	sent    []Message
	sendErr error
	closed  int
}

func (s *fakeSink) Send(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSink) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func (s *fakeSink) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeBusConn struct {
	fakeSink
	src          *fakeSource
	subscribeErr error
	subject      string
}

func (c *fakeBusConn) Subscribe(subject string) (Source, error) {
	if c.subscribeErr != nil {
		return nil, c.subscribeErr
	}
	c.subject = subject
	return c.src, nil
}

// fakeFactory hands each direction its own sessions, keyed by the client
// name suffix.
type fakeFactory struct {
	mu sync.Mutex

	bus      map[Direction]*fakeBusConn
	producer *fakeSink
	consumer *fakeSource

	busErr      error
	producerErr error
	consumerErr error

	busNames      []string
	consumerTopic string
	endpoints     [][]string
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		bus: map[Direction]*fakeBusConn{
			BusToLog: {src: newFakeSource(16)},
			LogToBus: {},
		},
		producer: &fakeSink{},
		consumer: newFakeSource(16),
	}
}

func (f *fakeFactory) OpenBus(endpoint, name string) (BusConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busNames = append(f.busNames, name)
	if f.busErr != nil {
		return nil, f.busErr
	}
	for d, conn := range f.bus {
		if strings.HasSuffix(name, "-"+d.String()) {
			return conn, nil
		}
	}
	return nil, errors.New("unexpected client name " + name)
}

func (f *fakeFactory) OpenLogProducer(endpoints []string, name string) (Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, endpoints)
	if f.producerErr != nil {
		return nil, f.producerErr
	}
	return f.producer, nil
}

func (f *fakeFactory) OpenLogConsumer(endpoints []string, topic, name string) (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, endpoints)
	f.consumerTopic = topic
	if f.consumerErr != nil {
		return nil, f.consumerErr
	}
	return f.consumer, nil
}
