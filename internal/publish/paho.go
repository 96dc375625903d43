package publish

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ajanata/simplertc/internal/config"
)

const (
	pahoTimeout = 10 * time.Second
	pahoQuiesce = 250 // ms
)

// Paho publishes with the Eclipse Paho client.
type Paho struct {
	client   paho.Client
	qos      byte
	retained bool
}

// NewPaho connects to cfg.Broker.
func NewPaho(cfg config.MQTTConfig) (*Paho, error) {
	client := paho.NewClient(pahoOptions(cfg))
	if err := wait(client.Connect()); err != nil {
		return nil, fmt.Errorf("publish: connecting to %s: %w", cfg.Broker, err)
	}
	return &Paho{client: client, qos: byte(cfg.QoS), retained: cfg.Retained}, nil
}

func (p *Paho) Publish(topic string, payload []byte) error {
	if err := wait(p.client.Publish(topic, p.qos, p.retained, payload)); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

func (p *Paho) Close() error {
	p.client.Disconnect(pahoQuiesce)
	return nil
}

func pahoOptions(cfg config.MQTTConfig) *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(pahoTimeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

func wait(t paho.Token) error {
	if !t.WaitTimeout(pahoTimeout) {
		return fmt.Errorf("timed out after %v", pahoTimeout)
	}
	return t.Error()
}
