package bridge

import (
	"context"
	"runtime"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

const entity = "bridge"

// Bridge runs the two relay tasks. It owns no connection itself: each task
// opens and closes its own sessions.
type Bridge struct {
	id      string
	config  *Config
	factory Factory
	logging *logrus.Logger

	// one per direction, fixed after New
	stats map[Direction]*stats

	printInterval time.Duration
}

// Result holds the terminal error of each task, nil when it stopped because
// the context was cancelled.
type Result struct {
	BusToLog error
	LogToBus error
}

func New(config *Config, factory Factory, logging *logrus.Logger) *Bridge {
	b := &Bridge{
		id:            uuid.NewV4().String(),
		config:        config,
		factory:       factory,
		logging:       logging,
		stats:         make(map[Direction]*stats, len(directions)),
		printInterval: 3 * time.Second,
	}
	for _, d := range directions {
		b.stats[d] = &stats{}
	}
	return b
}

func (b *Bridge) ID() string {
	return b.id
}

// Run starts both tasks and returns once both have exited. A task failing
// never stops the other one; only ctx does.
func (b *Bridge) Run(ctx context.Context) Result {
	if b.config.Mode.Debug {
		pctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go b.printf(pctx)
	}

	var (
		res Result
		wg  sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.BusToLog = b.runTask(ctx, BusToLog, b.busToLog)
	}()
	go func() {
		defer wg.Done()
		res.LogToBus = b.runTask(ctx, LogToBus, b.logToBus)
	}()
	wg.Wait()

	return res
}

func (b *Bridge) runTask(ctx context.Context, d Direction, task func(context.Context, *logrus.Entry) error) error {
	log := b.logging.WithFields(logrus.Fields{
		"entity":    entity,
		"bridge":    b.id,
		"direction": d.String(),
	})

	log.Info("task started")
	err := task(ctx, log)
	if err != nil {
		log.Errorf("task stopped: %v", err)
		return err
	}
	log.Info("task stopped")
	return nil
}

func (b *Bridge) clientName(d Direction) string {
	return b.id[:8] + "-" + d.String()
}

func (b *Bridge) printf(ctx context.Context) {
	ticker := time.NewTicker(b.printInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.logging.WithField("entity", entity).Debugf(
				"bus->log forwarded: %d, suppressed: %d, log->bus forwarded: %d, suppressed: %d, goroutines: %d",
				b.stats[BusToLog].forwarded.Load(), b.stats[BusToLog].suppressed.Load(),
				b.stats[LogToBus].forwarded.Load(), b.stats[LogToBus].suppressed.Load(),
				runtime.NumGoroutine())
		}
	}
}
