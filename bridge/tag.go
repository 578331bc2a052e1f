package bridge

import (
	"errors"
)

// Direction names one of the two relay loops.
type Direction uint8

const (
	BusToLog Direction = iota + 1
	LogToBus
)

var directions = [...]Direction{BusToLog, LogToBus}

func (d Direction) String() string {
	switch d {
	case BusToLog:
		return "BusToLog"
	case LogToBus:
		return "LogToBus"
	default:
		return "unknown"
	}
}

// Peer is the direction producing the traffic this direction must ignore.
func (d Direction) Peer() Direction {
	switch d {
	case BusToLog:
		return LogToBus
	case LogToBus:
		return BusToLog
	default:
		return 0
	}
}

// Tags holds the sentinel written by each direction: the NATS reply subject for
// LogToBus, the Kafka record key for BusToLog.
type Tags struct {
	BusToLog string `toml:"busToLog"`
	LogToBus string `toml:"logToBus"`
}

var DefaultTags = Tags{
	BusToLog: BusToLog.String(),
	LogToBus: LogToBus.String(),
}

func (t Tags) Of(d Direction) string {
	switch d {
	case BusToLog:
		return t.BusToLog
	case LogToBus:
		return t.LogToBus
	default:
		return ""
	}
}

// Suppressed reports whether a relay running in direction d must drop a
// message carrying tag. Only the peer's sentinel is dropped, never d's own.
func (t Tags) Suppressed(d Direction, tag string) bool {
	return len(tag) > 0 && tag == t.Of(d.Peer())
}

func (t Tags) validate() error {
	if t.BusToLog == "" || t.LogToBus == "" {
		return errors.New("require both forward tags")
	}
	if t.BusToLog == t.LogToBus {
		return errors.New("forward tags must differ")
	}
	return nil
}
