package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptSource asks for the endpoints and the subject interactively.
// Blank endpoints keep their defaults, the subject is asked again until given.
type PromptSource struct {
	In  io.Reader
	Out io.Writer
}

func (p *PromptSource) Load() (*Config, error) {
	r := bufio.NewReader(p.In)
	config := &Config{}

	fmt.Fprintln(p.Out, "-- Nats configuration --")
	bus, err := p.ask(r, fmt.Sprintf("Url to connect to Nats server (%s): ", DefaultBusEndpoint))
	if err != nil {
		return nil, err
	}
	config.Bus.Endpoint = bus

	fmt.Fprintln(p.Out, "-- Kafka configuration --")
	logs, err := p.ask(r, fmt.Sprintf("Kafka brokers (%s): ", DefaultLogEndpoint))
	if err != nil {
		return nil, err
	}
	config.Log.Endpoints = splitEndpoints(logs)

	fmt.Fprintln(p.Out, "-- Subject configuration --")
	for {
		subject, err := p.ask(r, "Subject relayed between Nats and Kafka: ")
		if err != nil {
			return nil, err
		}
		if len(subject) > 0 {
			config.Subject = subject
			return config, nil
		}
		fmt.Fprintln(p.Out, "You must enter a valid subject, retry.")
	}
}

func (p *PromptSource) ask(r *bufio.Reader, question string) (string, error) {
	fmt.Fprint(p.Out, question)
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
