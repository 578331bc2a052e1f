package logger

import (
	"fmt"
	"io"
	"log/syslog"
	"os"

	log "github.com/sirupsen/logrus"
	logrus_syslog "github.com/sirupsen/logrus/hooks/syslog"
)

const timestampFormat = "2006-01-02 15:04:05"

// NewLogger builds the process logger from the [logging] settings. output is
// one of stdout, stderr or syslog; syslogTag is only read for syslog.
func NewLogger(output, level, format, syslogTag string) (*log.Logger, error) {
	l := log.New()

	if err := setOutput(l, output, syslogTag); err != nil {
		return nil, err
	}
	if err := setLevel(l, level); err != nil {
		return nil, err
	}
	if err := setFormat(l, format); err != nil {
		return nil, err
	}
	return l, nil
}

func setLevel(l *log.Logger, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(lvl)
	return nil
}

// syslog entries go through the hook only, the logger's own writer is muted
func setOutput(l *log.Logger, output, syslogTag string) error {
	switch output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	case "syslog":
		hook, err := logrus_syslog.NewSyslogHook("", "", syslog.LOG_INFO, syslogTag)
		if err != nil {
			return fmt.Errorf("connect syslog: %w", err)
		}
		l.Hooks.Add(hook)
		l.SetOutput(io.Discard)
	default:
		return fmt.Errorf("unknown log output: %s", output)
	}
	return nil
}

func setFormat(l *log.Logger, format string) error {
	switch format {
	case "json":
		l.SetFormatter(&log.JSONFormatter{TimestampFormat: timestampFormat})
	case "default":
		l.SetFormatter(&log.TextFormatter{
			TimestampFormat:  timestampFormat,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}
