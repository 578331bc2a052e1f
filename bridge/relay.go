package bridge

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/covine/heimdall/bridge"

type stats struct {
	forwarded  atomic.Uint64
	suppressed atomic.Uint64
}

type relayMetrics struct {
	forwarded  metric.Int64Counter
	suppressed metric.Int64Counter
	failed     metric.Int64Counter
}

func newRelayMetrics() *relayMetrics {
	meter := otel.Meter(instrumentationName)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			return noop.Int64Counter{}
		}
		return c
	}
	return &relayMetrics{
		forwarded:  counter("relay.forwarded", "Messages relayed to the other side"),
		suppressed: counter("relay.suppressed", "Messages dropped because the peer direction produced them"),
		failed:     counter("relay.failed", "Relay sends that failed"),
	}
}

// relay moves messages from src to dst in one direction. Inbound messages
// tagged by the peer direction are dropped, every other message is sent on
// with this direction's tag and its payload untouched.
type relay struct {
	direction Direction
	tags      Tags
	fetchOp   Op
	src       Source
	dst       Sink

	log     *logrus.Entry
	stats   *stats
	tracer  trace.Tracer
	metrics *relayMetrics
	attrs   metric.MeasurementOption
}

func newRelay(d Direction, tags Tags, fetchOp Op, src Source, dst Sink, log *logrus.Entry, st *stats) *relay {
	return &relay{
		direction: d,
		tags:      tags,
		fetchOp:   fetchOp,
		src:       src,
		dst:       dst,
		log:       log,
		stats:     st,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newRelayMetrics(),
		attrs:     metric.WithAttributes(attribute.String("direction", d.String())),
	}
}

// run returns nil once ctx is done, or the first fetch or send failure.
// A batch is acknowledged only after all of its messages were handled and the
// source commits after every fetch, so a failure leaves the unacknowledged
// messages to be delivered again.
func (r *relay) run(ctx context.Context) error {
	for {
		batches, err := r.src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return taskError(r.direction, r.fetchOp, err)
		}

		for _, b := range batches {
			for _, m := range b.Messages {
				if err := r.handle(ctx, m); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return taskError(r.direction, OpSend, err)
				}
			}
			if b.Done != nil {
				b.Done()
			}
		}

		if err := r.src.Commit(); err != nil {
			r.log.Warnf("commit consumed messages: %v", err)
		}
	}
}

func (r *relay) handle(ctx context.Context, m Message) error {
	ctx, span := r.tracer.Start(ctx, "relay "+r.direction.String(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", m.Subject),
			attribute.Int("messaging.message.body.size", len(m.Payload)),
		))
	defer span.End()

	if r.tags.Suppressed(r.direction, m.Tag) {
		span.SetAttributes(attribute.Bool("relay.suppressed", true))
		r.stats.suppressed.Add(1)
		r.metrics.suppressed.Add(ctx, 1, r.attrs)
		r.log.WithField("subject", m.Subject).Tracef("drop message tagged %s", m.Tag)
		return nil
	}

	r.log.WithField("subject", m.Subject).Debugf("received data: %q", m.Payload)

	out := Message{
		Subject: m.Subject,
		Payload: m.Payload,
		Tag:     r.tags.Of(r.direction),
	}
	if err := r.dst.Send(ctx, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.failed.Add(ctx, 1, r.attrs)
		return err
	}

	r.stats.forwarded.Add(1)
	r.metrics.forwarded.Add(ctx, 1, r.attrs)
	return nil
}
