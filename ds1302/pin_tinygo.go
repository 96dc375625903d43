//go:build tinygo

package ds1302

import (
	"machine"
)

// MachinePin adapts a machine.Pin to Pin.
type MachinePin machine.Pin

func (p MachinePin) Set(high bool) { machine.Pin(p).Set(high) }

func (p MachinePin) Get() bool { return machine.Pin(p).Get() }

func (p MachinePin) Output() {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinOutput})
}

func (p MachinePin) Input() {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinInput})
}
