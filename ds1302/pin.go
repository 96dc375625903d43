package ds1302

// Pin is a single GPIO line as used by the driver. machine.Pin satisfies it through MachinePin on TinyGo targets;
// package sim provides simulated pins for testing.
type Pin interface {
	// Set drives the line when it is an output.
	Set(high bool)
	// Get samples the line.
	Get() bool
	// Output configures the line as an output.
	Output()
	// Input configures the line as an input.
	Input()
}
