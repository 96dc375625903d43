// Package publish sends chip readings to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/ajanata/simplertc/internal/config"
	"github.com/ajanata/simplertc/rtctime"
)

// Publisher sends payloads to a broker.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close() error
}

// New connects the client selected by cfg.Client.
func New(ctx context.Context, cfg config.MQTTConfig) (Publisher, error) {
	switch cfg.Client {
	case config.ClientPaho:
		return NewPaho(cfg)
	case config.ClientNatiu:
		addr, err := hostPort(cfg.Broker)
		if err != nil {
			return nil, err
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("publish: dialing %s: %w", addr, err)
		}
		p, err := NewNatiu(ctx, conn, cfg)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("publish: unknown client %q", cfg.Client)
	}
}

// hostPort turns a broker URL such as "tcp://host:1883" into "host:1883".
func hostPort(broker string) (string, error) {
	u, err := url.Parse(broker)
	if err != nil {
		return "", fmt.Errorf("publish: broker %q: %w", broker, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("publish: broker %q has no host", broker)
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "1883"), nil
	}
	return u.Host, nil
}

// Message is the JSON document published for each reading.
type Message struct {
	Time    string `json:"time"`
	RFC3339 string `json:"rfc3339,omitempty"`
	Weekday string `json:"weekday"`
	Running bool   `json:"running"`
}

// Payload encodes a reading. Time-only values carry no RFC 3339 timestamp.
func Payload(d rtctime.Date, running bool) ([]byte, error) {
	m := Message{
		Time:    d.String(),
		Weekday: d.WeekdayName(),
		Running: running,
	}
	if !d.TimeOnly() {
		m.RFC3339 = d.Time().Format(time.RFC3339)
	}
	return json.Marshal(m)
}
