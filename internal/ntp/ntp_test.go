package ntp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/beevik/ntp"
	qt "github.com/frankban/quicktest"
	"golang.org/x/net/nettest"
)

// seconds between the NTP epoch (1900) and the Unix epoch
const seventyYears = 2208988800

// serve answers one request on a local UDP socket with reply(request).
func serve(c *qt.C, reply func(req []byte) []byte) string {
	pc, err := nettest.NewLocalPacketListener("udp")
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { pc.Close() })

	go func() {
		buf := make([]byte, 512)
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		if out := reply(buf[:n]); out != nil {
			pc.WriteTo(out, addr)
		}
	}()
	return pc.LocalAddr().String()
}

func timestamp(t time.Time) uint64 {
	secs := uint64(t.Unix() + seventyYears)
	frac := uint64((int64(t.Nanosecond()) << 32) / int64(time.Second))
	return secs<<32 | frac
}

// reply builds a stratum 1 server answer to req, transmitting t.
func reply(req []byte, t time.Time) []byte {
	b := make([]byte, 48)
	b[0] = 0b00_100_100 // no leap warning, version 4, server
	b[1] = 1            // stratum
	copy(b[12:16], "GPS\x00")
	ts := timestamp(t)
	binary.BigEndian.PutUint64(b[16:], ts) // reference
	copy(b[24:32], req[40:48])             // origin echoes the request's transmit time
	binary.BigEndian.PutUint64(b[32:], ts) // receive
	binary.BigEndian.PutUint64(b[40:], ts) // transmit
	return b
}

func query(addr string, timeout time.Duration) (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Query(ctx, addr)
}

func TestQuery(t *testing.T) {
	c := qt.New(t)
	want := time.Date(2031, 1, 2, 3, 4, 5, 500_000_000, time.UTC)
	reqs := make(chan []byte, 1)
	addr := serve(c, func(req []byte) []byte {
		reqs <- append([]byte(nil), req...)
		return reply(req, want)
	})

	now, err := query(addr, 5*time.Second)
	c.Assert(err, qt.IsNil)
	c.Assert(now.Equal(want), qt.IsTrue, qt.Commentf("got %v", now))
	c.Assert(now.Location(), qt.Equals, time.UTC)

	req := <-reqs
	c.Assert(len(req) >= 48, qt.IsTrue)
	c.Assert(req[0]&0b111, qt.Equals, byte(3)) // client mode
}

func TestQueryUnsynchronizedServer(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, func(req []byte) []byte {
		b := reply(req, time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC))
		b[0] |= 0b11 << 6 // leap indicator: clock not synchronized
		return b
	})

	_, err := query(addr, 5*time.Second)
	c.Assert(err, qt.ErrorIs, ntp.ErrInvalidLeapSecond)
}

func TestQueryKissOfDeath(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, func(req []byte) []byte {
		b := reply(req, time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC))
		b[1] = 0
		copy(b[12:16], "RATE")
		return b
	})

	_, err := query(addr, 5*time.Second)
	c.Assert(err, qt.ErrorIs, ntp.ErrKissOfDeath)
}

func TestQueryShortReply(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, func([]byte) []byte { return []byte{1, 2, 3} })

	_, err := query(addr, 5*time.Second)
	c.Assert(err, qt.ErrorIs, io.ErrUnexpectedEOF)
}

func TestQueryTimeout(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, func([]byte) []byte { return nil })

	_, err := query(addr, 50*time.Millisecond)
	var nerr net.Error
	c.Assert(err, qt.ErrorAs, &nerr)
	c.Assert(nerr.Timeout(), qt.IsTrue)
}

func TestQueryContextDone(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Query(ctx, "127.0.0.1:1")
	c.Assert(err, qt.ErrorIs, context.Canceled)
}
