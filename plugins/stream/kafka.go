package stream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/sarama"
)

const (
	OffsetNewest = "newest"
	OffsetOldest = "oldest"
)

type Config struct {
	Addr           []string
	ClientID       string
	Version        string
	Group          string
	InitialOffset  string
	MaxPollRecords int
}

// Record is a single message read from the log.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// RecordSet holds consecutive records of one partition in log order.
type RecordSet struct {
	Topic     string
	Partition int32
	Records   []*Record
}

func (rs *RecordSet) last() *Record {
	if len(rs.Records) == 0 {
		return nil
	}
	return rs.Records[len(rs.Records)-1]
}

func ParseInitialOffset(s string) (int64, error) {
	switch strings.ToLower(s) {
	case "", OffsetNewest:
		return sarama.OffsetNewest, nil
	case OffsetOldest:
		return sarama.OffsetOldest, nil
	default:
		return 0, errors.New("unknown initial offset: " + s)
	}
}

func CheckVersion(s string) error {
	if s == "" {
		return nil
	}
	_, err := sarama.ParseKafkaVersion(s)
	return err
}

func newSaramaConfig(config *Config) (*sarama.Config, error) {
	conf := sarama.NewConfig()
	conf.ClientID = config.ClientID

	conf.Version = sarama.V2_1_0_0
	if config.Version != "" {
		v, err := sarama.ParseKafkaVersion(config.Version)
		if err != nil {
			return nil, fmt.Errorf("parse kafka version: %w", err)
		}
		conf.Version = v
	}

	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = sarama.WaitForAll

	initial, err := ParseInitialOffset(config.InitialOffset)
	if err != nil {
		return nil, err
	}
	conf.Consumer.Return.Errors = true
	conf.Consumer.Offsets.Initial = initial
	conf.Consumer.Offsets.AutoCommit.Enable = false

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
