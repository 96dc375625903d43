// Package ds1302 implements a driver for the DS1302 trickle-charge timekeeping chip, providing read-write of the
// clock and calendar registers, write protection and the clock halt flag. The chip's 31 bytes of RAM and the trickle
// charger remain unimplemented.
//
// The chip talks a three-wire synchronous serial protocol (CE, I/O and SCLK) which is bit-banged here over three
// GPIO pins. Every access is bracketed by raising and dropping CE, and starts with a command byte selecting a single
// register or a burst.
//
// A Device is not safe for concurrent use.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/DS1302.pdf
package ds1302

import (
	"time"

	"github.com/ajanata/simplertc/rtctime"
)

// DefaultSettle is the CE setup and inactive time from the datasheet (4us at 2V, 1us at 5V).
const DefaultSettle = time.Microsecond

type Device struct {
	clk, dat, rst Pin

	settle time.Duration
	delay  func(time.Duration)

	configured bool
	active     bool

	now rtctime.Date
}

type Config struct {
	// Settle is how long CE is held before the first bit and after the last. Defaults to DefaultSettle.
	Settle time.Duration
	// Delay waits for the given duration. Defaults to a busy wait on the monotonic clock, since the waits are a few
	// microseconds and a sleep may yield for far longer.
	Delay func(time.Duration)
}

// New creates a driver for a chip wired to the given SCLK, I/O and CE pins. It does not touch the pins until
// Configure is called.
func New(clk, dat, rst Pin) *Device {
	return &Device{
		clk: clk,
		dat: dat,
		rst: rst,
	}
}

// Configure sets the pins up as outputs with CE and SCLK low, clears write protection and starts the oscillator. It
// must be called before any other method.
func (d *Device) Configure(c Config) error {
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.Delay == nil {
		c.Delay = spin
	}
	d.settle = c.Settle
	d.delay = c.Delay

	d.clk.Output()
	d.dat.Output()
	d.rst.Output()
	d.rst.Set(false)
	d.clk.Set(false)

	d.now = rtctime.Date{}
	d.active = false
	d.configured = true

	if err := d.SetWriteProtection(false); err != nil {
		return err
	}
	return d.StartClock(true)
}

// spin returns once d has elapsed without giving up the goroutine.
func spin(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

// Now returns the time decoded by the last ReadTime.
func (d *Device) Now() rtctime.Date {
	return d.now
}

// ReadTime reads all clock registers in one burst and returns the decoded time, which Now will also return from then
// on. If any field is out of range the date is still returned and stored as read, together with a *RangeError.
func (d *Device) ReadTime() (rtctime.Date, error) {
	if !d.configured {
		return rtctime.Date{}, ErrNotConfigured
	}
	var buf [ClockBurstLen]uint8
	err := d.transfer(func() error {
		if err := d.write(CmdClockBurstRead); err != nil {
			return err
		}
		return d.read(buf[:])
	})
	if err != nil {
		return rtctime.Date{}, err
	}

	year := rtctime.FromBCD(buf[RegYear])
	weekday := int(buf[RegWeekday])
	month := rtctime.FromBCD(buf[RegMonth])
	day := rtctime.FromBCD(buf[RegDate])
	hour := rtctime.FromBCD(buf[RegHours] & (HoursTens | OnesMask))
	minute := rtctime.FromBCD(buf[RegMinutes])
	second := rtctime.FromBCD(buf[RegSeconds] & SecondsMask)

	d.now = rtctime.WithWeekday(year, month, day, weekday, hour, minute, second)

	var r rangeCheck
	r.check("second", second, 0, 59)
	r.check("minute", minute, 0, 59)
	r.check("hour", hour, 0, 23)
	r.check("day", day, 1, 31)
	r.check("month", month, 1, 12)
	r.check("weekday", weekday, 0, 6)
	r.check("year", year, 0, 99)
	return d.now, r.err()
}

// SetTime writes t to the chip. A time-only value only updates the seconds, minutes and hours registers and leaves
// the date alone; a full value is written in one burst that also clears write protection. Either way the seconds
// register is rewritten, which clears the clock halt flag.
func (d *Device) SetTime(t rtctime.Date) error {
	if !d.configured {
		return ErrNotConfigured
	}

	var r rangeCheck
	r.check("second", t.Second(), 0, 59)
	r.check("minute", t.Minute(), 0, 59)
	r.check("hour", t.Hour(), 0, 23)
	if !t.TimeOnly() {
		r.check("day", t.Day(), 1, 31)
		r.check("month", t.Month(), 1, 12)
		r.check("weekday", t.Weekday(), 0, 6)
		r.check("year", t.YearOffset(), 0, 99)
	}
	if err := r.err(); err != nil {
		return err
	}

	sec := rtctime.ToBCD(t.Second())
	minute := rtctime.ToBCD(t.Minute())
	hour := rtctime.ToBCD(t.Hour())

	if t.TimeOnly() {
		// the chip only takes one byte per single register access, so each needs its own transfer
		for _, w := range [...][2]uint8{
			{CmdSecondsWrite, sec},
			{CmdMinutesWrite, minute},
			{CmdHoursWrite, hour},
		} {
			if err := d.transfer(func() error { return d.write(w[0], w[1]) }); err != nil {
				return err
			}
		}
		return nil
	}

	return d.transfer(func() error {
		return d.write(
			CmdClockBurstWrite,
			sec,
			minute,
			hour,
			rtctime.ToBCD(t.Day()),
			rtctime.ToBCD(t.Month()),
			uint8(t.Weekday()),
			rtctime.ToBCD(t.YearOffset()),
			0, // control: write protect off
		)
	})
}

// SetWriteProtection sets or clears the write protect bit. While it is set the chip ignores writes to every other
// register.
func (d *Device) SetWriteProtection(enabled bool) error {
	if !d.configured {
		return ErrNotConfigured
	}
	var ctrl uint8
	if enabled {
		ctrl = WriteProtect
	}
	return d.transfer(func() error {
		return d.write(CmdControlWrite, ctrl)
	})
}

// StartClock starts or halts the oscillator, keeping the current seconds.
func (d *Device) StartClock(running bool) error {
	sec, err := d.readSeconds()
	if err != nil {
		return err
	}
	sec &= SecondsMask
	if !running {
		sec |= ClockHalt
	}
	return d.transfer(func() error {
		return d.write(CmdSecondsWrite, sec)
	})
}

// Running reports whether the oscillator is running, that is whether the clock halt flag is clear.
func (d *Device) Running() (bool, error) {
	sec, err := d.readSeconds()
	if err != nil {
		return false, err
	}
	return sec&ClockHalt == 0, nil
}

func (d *Device) readSeconds() (uint8, error) {
	if !d.configured {
		return 0, ErrNotConfigured
	}
	var buf [1]uint8
	err := d.transfer(func() error {
		if err := d.write(CmdSecondsRead); err != nil {
			return err
		}
		return d.read(buf[:])
	})
	return buf[0], err
}
