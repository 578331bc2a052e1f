package bridge

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// busToLog relays every message published on the subject into the log,
// except those LogToBus published.
func (b *Bridge) busToLog(ctx context.Context, log *logrus.Entry) error {
	name := b.clientName(BusToLog)

	producer, err := b.factory.OpenLogProducer(b.config.Log.Endpoints, name)
	if err != nil {
		return taskError(BusToLog, OpConnect, err)
	}
	defer closeQuietly(log, "log producer", producer)
	log.Info("connected to kafka (producer)")

	conn, err := b.factory.OpenBus(b.config.Bus.Endpoint, name)
	if err != nil {
		return taskError(BusToLog, OpConnect, err)
	}
	defer closeQuietly(log, "bus connection", conn)
	log.Info("connected to nats (consumer)")

	src, err := conn.Subscribe(b.config.Subject)
	if err != nil {
		return taskError(BusToLog, OpSubscribe, err)
	}
	defer closeQuietly(log, "bus subscription", src)
	log.Infof("subscribed to %s", b.config.Subject)

	return newRelay(BusToLog, b.config.Tags, OpReceive, src, producer, log, b.stats[BusToLog]).run(ctx)
}

// logToBus relays every record polled from the topic onto the bus, except
// those BusToLog produced, and commits after each poll.
func (b *Bridge) logToBus(ctx context.Context, log *logrus.Entry) error {
	name := b.clientName(LogToBus)

	consumer, err := b.factory.OpenLogConsumer(b.config.Log.Endpoints, b.config.Subject, name)
	if err != nil {
		return taskError(LogToBus, OpConnect, err)
	}
	defer closeQuietly(log, "log consumer", consumer)
	log.Info("connected to kafka (consumer)")

	conn, err := b.factory.OpenBus(b.config.Bus.Endpoint, name)
	if err != nil {
		return taskError(LogToBus, OpConnect, err)
	}
	defer closeQuietly(log, "bus connection", conn)
	log.Info("connected to nats (producer)")

	return newRelay(LogToBus, b.config.Tags, OpPoll, consumer, conn, log, b.stats[LogToBus]).run(ctx)
}

func closeQuietly(log *logrus.Entry, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warnf("close %s: %v", what, err)
	}
}
