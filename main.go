package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/covine/heimdall/bridge"
	"github.com/covine/heimdall/logger"
)

func main() {
	config, err := bridge.Configure(os.Args[1:], os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal("configure bridge config error: ", err)
	}

	logging, err := logger.NewLogger(config.Logging.Output, config.Logging.Level, config.Logging.Format, config.Logging.SyslogTag)
	if err != nil {
		log.Fatal("configure logger error: ", err)
	}

	os.Exit(run(config, logging))
}

func run(config *bridge.Config, logging *logrus.Logger) int {
	shutdown, err := setupTelemetry(config.Telemetry)
	if err != nil {
		logging.Errorf("setup telemetry error: %v", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logging.Warnf("telemetry shutdown: %v", err)
		}
	}()

	b := bridge.New(config, bridge.NewFactory(config), logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		s := onSignal()
		logging.Infof("signal received, stopping bridge: %v", s)
		cancel()
	}()

	logging.WithFields(logrus.Fields{
		"bridge":  b.ID(),
		"subject": config.Subject,
		"nats":    config.Bus.Endpoint,
		"kafka":   config.Log.Endpoints,
	}).Info("connector for nats and kafka started")

	res := b.Run(ctx)

	logging.WithField("bridge", b.ID()).Info("connector stopped")
	if res.BusToLog != nil || res.LogToBus != nil {
		return 1
	}
	return 0
}

func onSignal() os.Signal {
	sc := make(chan os.Signal, 1)

	signal.Notify(sc, syscall.SIGTERM, os.Interrupt)
	s := <-sc
	signal.Stop(sc)
	return s
}
