package alert

// FakeLine records Set calls for test assertions.
type FakeLine struct {
	// States contains every value passed to Set, in order.
	States []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLine creates a FakeLine for testing.
func NewFakeLine() *FakeLine {
	return &FakeLine{}
}

// Set records the requested state.
func (f *FakeLine) Set(active bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, active)
	return nil
}

// Active reports the last state set, or false if Set was never called.
func (f *FakeLine) Active() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *FakeLine) Reset() {
	f.States = nil
	f.SetError = nil
	f.Closed = false
}
