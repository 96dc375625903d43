package ds1302

// Command bytes. Bit 7 is always set, bit 6 selects RAM instead of the clock, bits 5-1 hold the register address (31
// selects a burst) and bit 0 requests a read.
const (
	CmdClockBurstRead  = 0b1011_1111
	CmdClockBurstWrite = 0b1011_1110
	CmdControlWrite    = 0b1000_1110
	CmdSecondsRead     = 0b1000_0001
	CmdSecondsWrite    = 0b1000_0000
	CmdMinutesWrite    = 0b1000_0010
	CmdHoursWrite      = 0b1000_0100
)

// Command byte fields.
const (
	CmdMarker   = 0b1000_0000
	CmdRAM      = 0b0100_0000
	CmdAddrMask = 0b0011_1110
	CmdRead     = 0b0000_0001
	BurstAddr   = 31
)

// Clock register addresses, in burst order.
const (
	RegSeconds = iota
	RegMinutes
	RegHours
	RegDate
	RegMonth
	RegWeekday
	RegYear
	RegControl

	// ClockBurstLen is the number of bytes in a clock burst.
	ClockBurstLen
)

// Register bits and masks.
const (
	ClockHalt    = 0b1000_0000 // seconds register: oscillator stopped
	WriteProtect = 0b1000_0000 // control register: writes ignored
	SecondsMask  = 0b0111_1111
	SecondsTens  = 0b0111_0000
	HoursTens    = 0b0011_0000
	OnesMask     = 0b0000_1111
)

// Command returns the command byte addressing a single clock register.
func Command(reg uint8, read bool) uint8 {
	cmd := CmdMarker | reg<<1&CmdAddrMask
	if read {
		cmd |= CmdRead
	}
	return cmd
}
