// Package sim simulates a DS1302 at the pin level, so the driver can be exercised without hardware.
//
// The simulation follows the datasheet timing: input bits are latched on rising SCLK edges while CE is high, and
// output bits are shifted out on falling edges, starting with the falling edge that completes a read command. Clock
// registers, clock bursts, write protection and the clock halt flag are modeled; RAM and the trickle charger are not,
// RAM reads returning zero.
package sim

import (
	"sync"
	"time"

	"github.com/ajanata/simplertc/ds1302"
	"github.com/ajanata/simplertc/rtctime"
)

// Transfer is one CE bracket as seen by the chip: the command byte and every data byte that followed it, written or
// read, in order.
type Transfer struct {
	Command uint8
	Data    []uint8
}

// Chip is a simulated DS1302. All methods are safe for concurrent use.
type Chip struct {
	mu sync.Mutex

	regs [ds1302.ClockBurstLen]uint8

	clock func() time.Time
	last  time.Time

	// pin state
	ce, sclk  bool
	hostLevel bool
	hostDrive bool

	// current transfer
	cur      *Transfer
	shift    uint8
	bits     int
	addr     int
	burst    bool
	ram      bool
	ignore   bool
	pending  bool // read command received, output starts on the next falling edge
	reading  bool
	out      uint8
	outBit   int
	index    int
	finished bool

	transfers []Transfer
}

// NewChip returns a chip in its power-on state: 1 January 2000, midnight, with the oscillator halted.
func NewChip() *Chip {
	c := &Chip{hostDrive: true}
	c.setDate(rtctime.New(2000, 1, 1, 0, 0, 0))
	c.regs[ds1302.RegSeconds] |= ds1302.ClockHalt
	return c
}

// Pins returns the SCLK, I/O and CE lines of the chip.
func (c *Chip) Pins() (clk, dat, rst ds1302.Pin) {
	return &clkPin{c}, &datPin{c}, &rstPin{c}
}

// SetClock makes the chip advance by wall time, read from now at the start of every transfer. A nil now turns this
// off again.
func (c *Chip) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = now
	c.last = time.Time{}
	if now != nil {
		c.last = now()
	}
}

// Advance moves the clock forward by whole seconds unless it is halted.
func (c *Chip) Advance(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(seconds)
}

// Registers returns a copy of the clock registers in burst order.
func (c *Chip) Registers() [ds1302.ClockBurstLen]uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs
}

// SetRegisters overwrites the clock registers, bypassing write protection.
func (c *Chip) SetRegisters(regs [ds1302.ClockBurstLen]uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs = regs
}

// SetDate loads d into the date and time registers, keeping the clock halt flag and write protection as they are.
// Time-only values only touch the time registers.
func (c *Chip) SetDate(d rtctime.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	halt := c.regs[ds1302.RegSeconds] & ds1302.ClockHalt
	c.setDate(d)
	c.regs[ds1302.RegSeconds] |= halt
}

// Date decodes the registers the same way the driver does.
func (c *Chip) Date() rtctime.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date()
}

// Halted reports whether the clock halt flag is set.
func (c *Chip) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[ds1302.RegSeconds]&ds1302.ClockHalt != 0
}

// WriteProtected reports whether the write protect flag is set.
func (c *Chip) WriteProtected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[ds1302.RegControl]&ds1302.WriteProtect != 0
}

// Transfers returns every completed transfer since the chip was created or ResetTransfers was called.
func (c *Chip) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Transfer, len(c.transfers))
	for i, t := range c.transfers {
		out[i] = Transfer{Command: t.Command, Data: append([]uint8(nil), t.Data...)}
	}
	return out
}

// ResetTransfers forgets the recorded transfers.
func (c *Chip) ResetTransfers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = nil
}

func (c *Chip) date() rtctime.Date {
	r := c.regs
	return rtctime.WithWeekday(
		rtctime.FromBCD(r[ds1302.RegYear]),
		rtctime.FromBCD(r[ds1302.RegMonth]),
		rtctime.FromBCD(r[ds1302.RegDate]),
		int(r[ds1302.RegWeekday]),
		rtctime.FromBCD(r[ds1302.RegHours]&(ds1302.HoursTens|ds1302.OnesMask)),
		rtctime.FromBCD(r[ds1302.RegMinutes]),
		rtctime.FromBCD(r[ds1302.RegSeconds]&ds1302.SecondsMask),
	)
}

func (c *Chip) setDate(d rtctime.Date) {
	c.regs[ds1302.RegSeconds] = rtctime.ToBCD(d.Second())
	c.regs[ds1302.RegMinutes] = rtctime.ToBCD(d.Minute())
	c.regs[ds1302.RegHours] = rtctime.ToBCD(d.Hour())
	if d.TimeOnly() {
		return
	}
	c.regs[ds1302.RegDate] = rtctime.ToBCD(d.Day())
	c.regs[ds1302.RegMonth] = rtctime.ToBCD(d.Month())
	c.regs[ds1302.RegWeekday] = uint8(d.Weekday())
	c.regs[ds1302.RegYear] = rtctime.ToBCD(d.YearOffset())
}

// advance rolls the registers forward. The weekday follows the calendar rather than counting days.
func (c *Chip) advance(seconds int) {
	if seconds == 0 || c.regs[ds1302.RegSeconds]&ds1302.ClockHalt != 0 {
		return
	}
	d := c.date().Add(seconds)
	if d.YearOffset() > 99 {
		// the chip has no century: 2099 rolls over to 2000
		d = rtctime.New(rtctime.Epoch+d.YearOffset()%100, d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second())
	}
	c.setDate(d)
}

func (c *Chip) tick() {
	if c.clock == nil {
		return
	}
	now := c.clock()
	n := int(now.Sub(c.last) / time.Second)
	if n <= 0 {
		return
	}
	c.last = c.last.Add(time.Duration(n) * time.Second)
	c.advance(n)
}
