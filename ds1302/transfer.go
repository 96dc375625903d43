package ds1302

// startTransfer raises CE with SCLK and I/O low. Bits may be clocked once the setup time has passed.
func (d *Device) startTransfer() error {
	if d.active {
		return ErrTransferActive
	}
	d.clk.Set(false)
	d.dat.Set(false)
	d.rst.Set(true)
	d.delay(d.settle)
	d.active = true
	return nil
}

// endTransfer drops CE. It always returns the bus to idle, and only reports whether a transfer was open.
func (d *Device) endTransfer() error {
	d.rst.Set(false)
	d.delay(d.settle)
	if !d.active {
		return ErrNoTransfer
	}
	d.active = false
	return nil
}

// transfer runs fn inside a single transfer. A failing fn still ends the transfer.
func (d *Device) transfer(fn func() error) error {
	if err := d.startTransfer(); err != nil {
		return err
	}
	err := fn()
	if endErr := d.endTransfer(); err == nil {
		err = endErr
	}
	return err
}

// writeByte shifts b out LSB first, the chip latching each bit on the rising clock edge.
func (d *Device) writeByte(b uint8) error {
	if !d.active {
		return ErrNoTransfer
	}
	for mask := uint8(1); mask != 0; mask <<= 1 {
		d.dat.Set(b&mask != 0)
		d.clk.Set(true)
		d.clk.Set(false)
	}
	return nil
}

// write sends each byte in order.
func (d *Device) write(buf ...uint8) error {
	for _, b := range buf {
		if err := d.writeByte(b); err != nil {
			return err
		}
	}
	return nil
}

// read fills buf, LSB first per byte. The I/O line is an input for the duration and an output again afterwards.
func (d *Device) read(buf []uint8) error {
	if !d.active {
		return ErrNoTransfer
	}
	d.dat.Input()
	for i := range buf {
		var b uint8
		for mask := uint8(1); mask != 0; mask <<= 1 {
			d.clk.Set(true)
			if d.dat.Get() {
				b |= mask
			}
			d.clk.Set(false)
		}
		buf[i] = b
	}
	d.dat.Output()
	return nil
}
