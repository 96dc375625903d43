package sim

import (
	"github.com/ajanata/simplertc/ds1302"
)

type clkPin struct{ c *Chip }

func (p *clkPin) Set(high bool) {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.sclk
	c.sclk = high
	if !c.ce || prev == high {
		return
	}
	if high {
		c.rise()
	} else {
		c.fall()
	}
}

func (p *clkPin) Get() bool {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.c.sclk
}

func (p *clkPin) Output() {}
func (p *clkPin) Input()  {}

type datPin struct{ c *Chip }

func (p *datPin) Set(high bool) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.hostLevel = high
}

// Get returns the chip's output bit while it is driving the line, and the host's level otherwise.
func (p *datPin) Get() bool {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ce && c.reading {
		return c.out>>c.outBit&1 != 0
	}
	return c.hostLevel
}

func (p *datPin) Output() {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.hostDrive = true
}

func (p *datPin) Input() {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.hostDrive = false
}

type rstPin struct{ c *Chip }

func (p *rstPin) Set(high bool) {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if high == c.ce {
		return
	}
	c.ce = high
	if high {
		c.begin()
	} else {
		c.end()
	}
}

func (p *rstPin) Get() bool {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.c.ce
}

func (p *rstPin) Output() {}
func (p *rstPin) Input()  {}

func (c *Chip) begin() {
	c.tick()
	c.cur = nil
	c.shift, c.bits = 0, 0
	c.addr, c.index = 0, 0
	c.burst, c.ram, c.ignore = false, false, false
	c.pending, c.reading, c.finished = false, false, false
	c.out, c.outBit = 0, 0
}

func (c *Chip) end() {
	if c.cur != nil {
		c.transfers = append(c.transfers, *c.cur)
	}
	c.cur = nil
	c.pending, c.reading = false, false
}

// rise latches an input bit.
func (c *Chip) rise() {
	if c.reading || c.pending || !c.hostDrive {
		return
	}
	if c.hostLevel {
		c.shift |= 1 << c.bits
	}
	c.bits++
	if c.bits < 8 {
		return
	}
	b := c.shift
	c.shift, c.bits = 0, 0
	if c.cur == nil {
		c.command(b)
	} else {
		c.cur.Data = append(c.cur.Data, b)
		c.writeData(b)
	}
}

// fall shifts the next output bit.
func (c *Chip) fall() {
	switch {
	case c.pending:
		c.pending = false
		c.reading = true
		c.out, c.outBit = c.nextOut(), 0
	case c.reading:
		c.outBit++
		if c.outBit == 8 {
			c.cur.Data = append(c.cur.Data, c.out)
			c.out, c.outBit = c.nextOut(), 0
		}
	}
}

func (c *Chip) command(b uint8) {
	c.cur = &Transfer{Command: b}
	if b&ds1302.CmdMarker == 0 {
		// not a command: the chip ignores the rest of the transfer
		c.ignore = true
		return
	}
	c.ram = b&ds1302.CmdRAM != 0
	c.addr = int(b&ds1302.CmdAddrMask) >> 1
	c.burst = c.addr == ds1302.BurstAddr
	c.pending = b&ds1302.CmdRead != 0
}

func (c *Chip) nextOut() uint8 {
	if c.ignore || c.ram || c.finished {
		return 0
	}
	if !c.burst {
		c.finished = true
		return c.reg(c.addr)
	}
	i := c.index
	c.index++
	return c.reg(i)
}

func (c *Chip) reg(i int) uint8 {
	if i < len(c.regs) {
		return c.regs[i]
	}
	return 0
}

func (c *Chip) writeData(b uint8) {
	if c.ignore || c.ram || c.finished {
		return
	}
	i := c.addr
	if c.burst {
		i = c.index
		c.index++
		if c.index >= len(c.regs) {
			c.finished = true
		}
	} else {
		c.finished = true
	}
	if i >= len(c.regs) {
		return
	}
	if i != ds1302.RegControl && c.regs[ds1302.RegControl]&ds1302.WriteProtect != 0 {
		return
	}
	if i == ds1302.RegControl {
		b &= ds1302.WriteProtect
	}
	c.regs[i] = b
}
