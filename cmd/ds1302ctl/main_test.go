package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/net/nettest"

	"github.com/ajanata/simplertc/ds1302"
	"github.com/ajanata/simplertc/ds1302/sim"
	"github.com/ajanata/simplertc/internal/config"
	"github.com/ajanata/simplertc/internal/logger"
	"github.com/ajanata/simplertc/rtctime"
)

func run(c *qt.C, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(c *qt.C, start string) string {
	cfg := config.Default()
	cfg.Log.Level = logger.ErrorLevel
	cfg.Chip.Start = start
	path := filepath.Join(c.TempDir(), "ds1302ctl.toml")
	c.Assert(config.Init(path, cfg), qt.IsNil)
	return path
}

func TestConfigInit(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "etc", "ds1302ctl.toml")

	out, err := run(c, "", "--config", path, "config", "init")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Configuration initialized at "+path+"\n")

	cfg, err := config.ReadFromFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Validate(), qt.IsNil)

	_, err = run(c, "", "--config", path, "config", "init")
	c.Assert(err, qt.ErrorMatches, `failed to initialize config: config file already exists at .*`)
}

func TestRead(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, "2024-06-01T12:00:00Z")

	out, err := run(c, "", "--config", path, "read")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Matches, `1\. 6\. 2024 at 12:0:[0-2]\(Saturday\)\n`)
}

func TestMissingConfig(t *testing.T) {
	c := qt.New(t)
	_, err := run(c, "", "--config", filepath.Join(c.TempDir(), "none.toml"), "read")
	c.Assert(err, qt.ErrorMatches, `failed to open config file: .*`)
}

func TestBadLogLevel(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, "")
	defer func() { logLevel = "" }()
	_, err := run(c, "", "--config", path, "--log-level", "loud", "read")
	c.Assert(err, qt.ErrorMatches, `invalid config: log.level: unknown level "loud"`)
}

func TestStartOutOfRange(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, "1990-06-01T00:00:00Z")
	_, err := run(c, "", "--config", path, "read")
	c.Assert(err, qt.ErrorMatches, `invalid config: chip.start: year 1990 not in 2000..2099`)
}

func TestShell(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, "2024-06-01T12:00:00Z")

	out, err := run(c, "clock halt\nset 2030 1 2 3 4 5\nclock halt\nread\nquit\n", "--config", path, "shell")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "set 2. 1. 2030 at 3:4:5(Wednesday)\n2. 1. 2030 at 3:4:5(Wednesday)\n")
}

func TestSync(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(c, "2024-06-01T12:00:00Z")

	pc, err := nettest.NewLocalPacketListener("udp")
	c.Assert(err, qt.IsNil)
	defer pc.Close()
	go func() {
		buf := make([]byte, 48)
		_, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		// stratum 1 server reply; reference, receive and transmit times all equal
		reply := make([]byte, 48)
		reply[0], reply[1] = 0x24, 1
		secs := uint32(time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC).Unix() + 2208988800)
		for _, off := range []int{16, 32, 40} {
			binary.BigEndian.PutUint32(reply[off:], secs)
		}
		copy(reply[24:32], buf[40:48])
		pc.WriteTo(reply, addr)
	}()

	out, err := run(c, "", "--config", path, "sync", "--server", pc.LocalAddr().String())
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "18. 5. 2033 at 3:33:20(Wednesday)\n")
}

type recorder struct {
	topics   []string
	payloads [][]byte
}

func (r *recorder) Publish(topic string, payload []byte) error {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recorder) Close() error { return nil }

func TestPublishLoop(t *testing.T) {
	c := qt.New(t)
	chip := sim.NewChip()
	chip.SetDate(rtctime.New(2024, 6, 1, 12, 0, 0))
	dev := ds1302.New(chip.Pins())
	c.Assert(dev.Configure(ds1302.Config{Delay: func(time.Duration) {}}), qt.IsNil)

	cfg := config.Default()
	cfg.MQTT.Interval = config.Duration{Duration: time.Millisecond}
	e := &env{cfg: cfg, log: logger.Nop(), chip: chip, dev: dev}

	var r recorder
	c.Assert(publishLoop(context.Background(), e, &r, 3), qt.IsNil)
	c.Assert(r.topics, qt.DeepEquals, []string{"ds1302/time", "ds1302/time", "ds1302/time"})

	var msg map[string]any
	c.Assert(json.Unmarshal(r.payloads[0], &msg), qt.IsNil)
	c.Assert(msg["rfc3339"], qt.Equals, "2024-06-01T12:00:00Z")
	c.Assert(msg["running"], qt.Equals, true)
}

func TestPublishLoopCancelled(t *testing.T) {
	c := qt.New(t)
	chip := sim.NewChip()
	dev := ds1302.New(chip.Pins())
	c.Assert(dev.Configure(ds1302.Config{Delay: func(time.Duration) {}}), qt.IsNil)

	cfg := config.Default()
	cfg.MQTT.Interval = config.Duration{Duration: time.Hour}
	e := &env{cfg: cfg, log: logger.Nop(), chip: chip, dev: dev}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var r recorder
	c.Assert(publishLoop(ctx, e, &r, 0), qt.IsNil)
	c.Assert(r.payloads, qt.HasLen, 1)
}
