//go:build !linux

package alert

import "errors"

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// NewRealLine returns an error on non-Linux platforms.
func NewRealLine(pin int) (*RealLine, error) {
	return nil, errors.New("alert: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (l *RealLine) Set(active bool) error {
	return errors.New("alert: not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *RealLine) Close() error {
	return nil
}
