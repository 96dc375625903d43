package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/ajanata/simplertc/internal/config"
)

// Natiu publishes at QoS 0 with the allocation-free natiu client over an
// established connection.
type Natiu struct {
	client *mqtt.Client
	flags  mqtt.PacketFlags
}

// NewNatiu sends CONNECT on conn and waits for the broker's acknowledgement.
// The natiu client only publishes at QoS 0.
func NewNatiu(ctx context.Context, conn net.Conn, cfg config.MQTTConfig) (*Natiu, error) {
	if cfg.QoS != 0 {
		return nil, fmt.Errorf("publish: natiu client supports QoS 0 only, got %d", cfg.QoS)
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, cfg.Retained)
	if err != nil {
		return nil, err
	}

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1500)},
		OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
			_, err := io.Copy(io.Discard, r)
			return err
		},
	})

	var vc mqtt.VariablesConnect
	vc.SetDefaultMQTT([]byte(cfg.ClientID))
	if cfg.Username != "" {
		vc.Username = []byte(cfg.Username)
		vc.Password = []byte(cfg.Password)
	}
	if err := client.Connect(ctx, conn, &vc); err != nil {
		return nil, fmt.Errorf("publish: connecting: %w", err)
	}
	return &Natiu{client: client, flags: flags}, nil
}

func (n *Natiu) Publish(topic string, payload []byte) error {
	vp := mqtt.VariablesPublish{TopicName: []byte(topic)}
	if err := n.client.PublishPayload(n.flags, vp, payload); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

func (n *Natiu) Close() error {
	return n.client.Disconnect(errors.New("publisher closed"))
}
