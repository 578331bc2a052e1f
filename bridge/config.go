package bridge

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/covine/heimdall/plugins/stream"
)

const (
	DefaultBusEndpoint = "nats://localhost:4222"
	DefaultLogEndpoint = "localhost:9092"
)

type Mode struct {
	Debug bool `toml:"debug"`
}

type Bus struct {
	Endpoint      string `toml:"endpoint"`
	ReconnectWait int    `toml:"reconnectWait"`
	MaxReconnects int    `toml:"maxReconnects"`
	FlushTimeout  int    `toml:"flushTimeout"`
}

type Log struct {
	Endpoints      []string `toml:"endpoints"`
	Version        string   `toml:"version"`
	Group          string   `toml:"group"`
	InitialOffset  string   `toml:"initialOffset"`
	MaxPollRecords int      `toml:"maxPollRecords"`
}

type Logging struct {
	Output    string `toml:"output"`
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	SyslogTag string `toml:"syslogTag"`
}

type Telemetry struct {
	Enable   bool `toml:"enable"`
	Interval int  `toml:"interval"`
}

// Config is built once by Configure and shared read-only by both tasks.
type Config struct {
	Title     string    `toml:"title"`
	Subject   string    `toml:"subject"`
	Mode      Mode      `toml:"mode"`
	Bus       Bus       `toml:"bus"`
	Log       Log       `toml:"log"`
	Tags      Tags      `toml:"tags"`
	Logging   Logging   `toml:"logging"`
	Telemetry Telemetry `toml:"telemetry"`
}

// ConfigSource supplies a Config. Blank endpoints are allowed, check fills in
// the defaults. The subject has no default.
type ConfigSource interface {
	Load() (*Config, error)
}

// FileSource reads a TOML configuration file.
type FileSource struct {
	Path string
}

func (f *FileSource) Load() (*Config, error) {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	config := &Config{}
	if err := toml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return config, nil
}

func usage() {
	fmt.Printf("%s\n", `
Usage: heimdall [options]

Bridge Options:
	-c,  --config <file>              Configuration file path
	-bus <url>                        NATS server url (default nats://localhost:4222)
	-log <host:port>[,<host:port>]    Kafka brokers (default localhost:9092)
	-subject <name>                   Subject and topic relayed in both directions
	-debug                            Log every relayed message

Without a configuration file the bridge asks for the values on stdin.

Common Options:
	-h, --help                        Show this message
`)
	os.Exit(0)
}

func Configure(args []string, in io.Reader, out io.Writer) (*Config, error) {
	var (
		cf      string
		bus     string
		logs    string
		subject string
		debug   bool
	)

	fs := flag.NewFlagSet("heimdall", flag.ExitOnError)
	fs.StringVar(&cf, "config", "", "config file path.")
	fs.StringVar(&cf, "c", "", "config file path.")
	fs.StringVar(&bus, "bus", "", "nats server url.")
	fs.StringVar(&logs, "log", "", "comma separated kafka brokers.")
	fs.StringVar(&subject, "subject", "", "subject to relay.")
	fs.BoolVar(&debug, "debug", false, "debug mode.")
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var source ConfigSource
	switch {
	case len(cf) > 0:
		source = &FileSource{Path: cf}
	case len(subject) > 0:
		source = staticSource{}
	default:
		source = &PromptSource{In: in, Out: out}
	}

	config, err := source.Load()
	if err != nil {
		return nil, err
	}

	if len(bus) > 0 {
		config.Bus.Endpoint = bus
	}
	if len(logs) > 0 {
		config.Log.Endpoints = splitEndpoints(logs)
	}
	if len(subject) > 0 {
		config.Subject = subject
	}
	if debug {
		config.Mode.Debug = true
	}

	if err := config.check(); err != nil {
		return nil, err
	}
	return config, nil
}

// staticSource is used when every required value comes from flags.
type staticSource struct{}

func (staticSource) Load() (*Config, error) {
	return &Config{}, nil
}

func splitEndpoints(s string) []string {
	var endpoints []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); len(e) > 0 {
			endpoints = append(endpoints, e)
		}
	}
	return endpoints
}

func (config *Config) check() error {
	config.Subject = strings.TrimSpace(config.Subject)
	if config.Subject == "" {
		return errors.New("require subject")
	}

	if config.Title == "" {
		config.Title = "heimdall"
	}

	if config.Bus.Endpoint == "" {
		config.Bus.Endpoint = DefaultBusEndpoint
	}
	if config.Bus.ReconnectWait < 0 {
		return errors.New("bus reconnect wait must not be negative")
	}

	if len(config.Log.Endpoints) == 0 {
		config.Log.Endpoints = []string{DefaultLogEndpoint}
	}
	if config.Log.Group == "" {
		config.Log.Group = "heimdall"
	}
	if config.Log.MaxPollRecords < 0 {
		return errors.New("max poll records must not be negative")
	}
	if _, err := stream.ParseInitialOffset(config.Log.InitialOffset); err != nil {
		return err
	}
	if err := stream.CheckVersion(config.Log.Version); err != nil {
		return fmt.Errorf("kafka version: %w", err)
	}

	if config.Tags.BusToLog == "" && config.Tags.LogToBus == "" {
		config.Tags = DefaultTags
	}
	if err := config.Tags.validate(); err != nil {
		return err
	}

	if config.Logging.Output == "" {
		config.Logging.Output = "stdout"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
		if config.Mode.Debug {
			config.Logging.Level = "debug"
		}
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "default"
	}

	if config.Telemetry.Enable && config.Telemetry.Interval <= 0 {
		config.Telemetry.Interval = 10
	}

	return nil
}
