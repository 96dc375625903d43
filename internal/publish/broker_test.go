package publish

import (
	"errors"
	"io"
	"net"

	mqtt "github.com/soypat/natiu-mqtt"
)

type connectRecord struct {
	clientID string
	username string
	password string
}

type publishRecord struct {
	topic   string
	payload string
	qos     mqtt.QoSLevel
	retain  bool
}

// broker is an in-process MQTT server good for one session. It accepts any
// CONNECT, acknowledges QoS 1 publishes and answers pings.
type broker struct {
	connects  chan connectRecord
	publishes chan publishRecord
	done      chan error
}

func newBroker() *broker {
	return &broker{
		connects:  make(chan connectRecord, 1),
		publishes: make(chan publishRecord, 16),
		done:      make(chan error, 1),
	}
}

func (b *broker) serve(conn net.Conn) {
	err := b.session(conn)
	conn.Close()
	b.done <- err
}

func (b *broker) session(conn net.Conn) error {
	dec := mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1500)}
	var tx mqtt.Tx
	tx.SetTxTransport(conn)
	for {
		hdr, _, err := mqtt.DecodeHeader(conn)
		if err != nil {
			return err
		}
		switch hdr.Type() {
		case mqtt.PacketConnect:
			vc, _, err := dec.DecodeConnect(conn)
			if err != nil {
				return err
			}
			b.connects <- connectRecord{
				clientID: string(vc.ClientID),
				username: string(vc.Username),
				password: string(vc.Password),
			}
			if err := tx.WriteConnack(mqtt.VariablesConnack{ReturnCode: mqtt.ReturnCodeConnAccepted}); err != nil {
				return err
			}
		case mqtt.PacketPublish:
			flags := hdr.Flags()
			vp, n, err := dec.DecodePublish(conn, flags.QoS())
			if err != nil {
				return err
			}
			topic := string(vp.TopicName)
			payload := make([]byte, int(hdr.RemainingLength)-n)
			if _, err := io.ReadFull(conn, payload); err != nil {
				return err
			}
			b.publishes <- publishRecord{topic: topic, payload: string(payload), qos: flags.QoS(), retain: flags.Retain()}
			switch flags.QoS() {
			case mqtt.QoS0:
			case mqtt.QoS1:
				if err := tx.WriteIdentified(mqtt.PacketPuback, vp.PacketIdentifier); err != nil {
					return err
				}
			default:
				return errors.New("broker: QoS 2 not supported")
			}
		case mqtt.PacketPingreq:
			if err := tx.WriteSimple(mqtt.PacketPingresp); err != nil {
				return err
			}
		case mqtt.PacketDisconnect:
			return nil
		default:
			if _, err := io.CopyN(io.Discard, conn, int64(hdr.RemainingLength)); err != nil {
				return err
			}
		}
	}
}
