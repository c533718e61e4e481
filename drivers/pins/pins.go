// Package pins holds the GPIO seams shared by the click drivers.
//
// A mikroBUS socket exposes RST, CS, PWM and INT next to the serial buses.
// Drivers take those lines as plain functions so that the same driver runs
// on a TinyGo machine.Pin, a periph gpio.PinIO, or a test recorder. A nil
// function means the line is not connected, which is what the Config
// defaults of every driver use.
package pins

// Output drives a line to the given logical level.
type Output func(level bool)

// Input returns the logical level of a line.
type Input func() bool

// Set drives o if it is connected.
func (o Output) Set(level bool) {
	if o != nil {
		o(level)
	}
}

func (o Output) High() { o.Set(true) }
func (o Output) Low()  { o.Set(false) }

// Connected reports whether the line is wired.
func (o Output) Connected() bool { return o != nil }

// Get reads i, returning def when the line is not connected.
func (i Input) Get(def bool) bool {
	if i == nil {
		return def
	}
	return i()
}

func (i Input) Connected() bool { return i != nil }
