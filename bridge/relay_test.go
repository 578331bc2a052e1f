package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry() *logrus.Entry {
	l, _ := test.NewNullLogger()
	l.SetLevel(logrus.TraceLevel)
	return logrus.NewEntry(l)
}

func single(subject, payload, tag string) Batch {
	return Batch{Messages: []Message{{Subject: subject, Payload: []byte(payload), Tag: tag}}}
}

// drain runs a relay over the queued fetches until the source is exhausted.
func drain(t *testing.T, d Direction, tags Tags, src *fakeSource, dst *fakeSink) (*stats, error) {
	t.Helper()
	close(src.fetches)
	st := &stats{}
	err := newRelay(d, tags, OpPoll, src, dst, testEntry(), st).run(context.Background())
	require.Error(t, err)
	return st, err
}

func TestRelayBusToLogForwardsUntagged(t *testing.T) {
	src, dst := newFakeSource(4), &fakeSink{}
	src.push(single("orders", "A", ""))

	st, err := drain(t, BusToLog, DefaultTags, src, dst)
	assert.ErrorIs(t, err, errSourceDone)

	assert.Equal(t, []Message{{Subject: "orders", Payload: []byte("A"), Tag: "BusToLog"}}, dst.messages())
	assert.Equal(t, uint64(1), st.forwarded.Load())
	assert.Equal(t, uint64(0), st.suppressed.Load())
}

func TestRelayBusToLogSuppressesPeerOnly(t *testing.T) {
	src, dst := newFakeSource(4), &fakeSink{}
	src.push(
		single("orders", "from-peer", "LogToBus"),
		single("orders", "own-tag", "BusToLog"),
		single("orders", "request", "_INBOX.abc"),
	)

	st, _ := drain(t, BusToLog, DefaultTags, src, dst)

	sent := dst.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "own-tag", string(sent[0].Payload))
	assert.Equal(t, "request", string(sent[1].Payload))
	for _, m := range sent {
		assert.Equal(t, "BusToLog", m.Tag)
	}
	assert.Equal(t, uint64(1), st.suppressed.Load())
}

func TestRelayLogToBus(t *testing.T) {
	src, dst := newFakeSource(4), &fakeSink{}
	src.push(Batch{Messages: []Message{
		{Subject: "orders", Payload: []byte("A"), Tag: "BusToLog"},
		{Subject: "orders", Payload: []byte("B"), Tag: "external"},
		{Subject: "orders", Payload: []byte("C")},
	}})

	st, _ := drain(t, LogToBus, DefaultTags, src, dst)

	assert.Equal(t, []Message{
		{Subject: "orders", Payload: []byte("B"), Tag: "LogToBus"},
		{Subject: "orders", Payload: []byte("C"), Tag: "LogToBus"},
	}, dst.messages())
	assert.Equal(t, uint64(2), st.forwarded.Load())
	assert.Equal(t, uint64(1), st.suppressed.Load())
}

func TestRelayPreservesPayload(t *testing.T) {
	payload := []byte{0x00, 0xff, 'x', '\n', 0x80}
	orig := append([]byte(nil), payload...)

	src, dst := newFakeSource(1), &fakeSink{}
	src.push(Batch{Messages: []Message{{Subject: "bin", Payload: payload}}})
	drain(t, BusToLog, DefaultTags, src, dst)

	sent := dst.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, orig, sent[0].Payload)
	assert.Equal(t, orig, payload)
}

func TestRelayKeepsOrderAndAcknowledges(t *testing.T) {
	var done []int
	batch := func(i int, payloads ...string) Batch {
		b := Batch{Done: func() { done = append(done, i) }}
		for _, p := range payloads {
			b.Messages = append(b.Messages, Message{Subject: "orders", Payload: []byte(p)})
		}
		return b
	}

	src, dst := newFakeSource(2), &fakeSink{}
	src.push(batch(0, "1", "2"), batch(1, "3"))
	src.push(batch(2, "4", "5"))

	drain(t, LogToBus, DefaultTags, src, dst)

	var got []string
	for _, m := range dst.messages() {
		got = append(got, string(m.Payload))
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, got)
	assert.Equal(t, []int{0, 1, 2}, done)
	assert.Equal(t, 2, src.commitCount())
}

func TestRelaySendFailureStopsWithoutAck(t *testing.T) {
	sendErr := errors.New("broker down")
	acked := false

	src, dst := newFakeSource(2), &fakeSink{sendErr: sendErr}
	src.push(Batch{
		Messages: []Message{{Subject: "orders", Payload: []byte("A")}},
		Done:     func() { acked = true },
	})
	src.push(single("orders", "never", ""))

	err := newRelay(LogToBus, DefaultTags, OpPoll, src, dst, testEntry(), &stats{}).run(context.Background())

	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, LogToBus, te.Direction)
	assert.Equal(t, OpSend, te.Op)
	assert.ErrorIs(t, err, sendErr)
	assert.False(t, acked)
	assert.Equal(t, 0, src.commitCount())
	assert.Len(t, src.fetches, 1)
}

func TestRelayFetchFailure(t *testing.T) {
	pollErr := errors.New("poll failed")
	src, dst := newFakeSource(1), &fakeSink{}
	src.fail(pollErr)

	err := newRelay(LogToBus, DefaultTags, OpPoll, src, dst, testEntry(), &stats{}).run(context.Background())

	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, OpPoll, te.Op)
	assert.ErrorIs(t, err, pollErr)
	assert.Equal(t, "LogToBus poll: poll failed", err.Error())
}

func TestRelayCommitFailureIsNotFatal(t *testing.T) {
	src, dst := newFakeSource(2), &fakeSink{}
	src.commitErr = errors.New("coordinator moved")
	src.push(single("orders", "A", "external"))
	src.push(single("orders", "B", "external"))

	_, err := drain(t, LogToBus, DefaultTags, src, dst)
	assert.ErrorIs(t, err, errSourceDone)
	assert.Len(t, dst.messages(), 2)
	assert.Equal(t, 2, src.commitCount())
}

func TestRelayStopsOnCancel(t *testing.T) {
	src, dst := newFakeSource(0), &fakeSink{}
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- newRelay(BusToLog, DefaultTags, OpReceive, src, dst, testEntry(), &stats{}).run(ctx)
	}()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

func TestRelayCustomTags(t *testing.T) {
	legacy := Tags{BusToLog: "NatsKafka", LogToBus: "KafkaNats"}

	src, dst := newFakeSource(1), &fakeSink{}
	src.push(
		single("orders", "echo", "KafkaNats"),
		single("orders", "A", "LogToBus"),
	)
	drain(t, BusToLog, legacy, src, dst)

	assert.Equal(t, []Message{{Subject: "orders", Payload: []byte("A"), Tag: "NatsKafka"}}, dst.messages())
}

func TestRelayRoundTripNeverEchoes(t *testing.T) {
	// A message relayed bus->log comes back on the log side; relayed log->bus
	// it comes back on the bus side. Neither echo may be relayed again.
	toLog := &fakeSink{}
	busSrc := newFakeSource(1)
	busSrc.push(single("orders", "A", ""))
	drain(t, BusToLog, DefaultTags, busSrc, toLog)

	toBus := &fakeSink{}
	logSrc := newFakeSource(1)
	logSrc.push(Batch{Messages: toLog.messages()})
	drain(t, LogToBus, DefaultTags, logSrc, toBus)
	assert.Empty(t, toBus.messages())

	external := &fakeSink{}
	logSrc = newFakeSource(1)
	logSrc.push(single("orders", "B", "external"))
	drain(t, LogToBus, DefaultTags, logSrc, external)

	echo := &fakeSink{}
	busSrc = newFakeSource(1)
	busSrc.push(Batch{Messages: external.messages()})
	drain(t, BusToLog, DefaultTags, busSrc, echo)
	assert.Empty(t, echo.messages())
}
