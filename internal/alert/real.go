//go:build linux

package alert

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLine drives a GPIO output on actual hardware using the Linux GPIO
// character device.
type RealLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealLine requests the given pin as an output, initially inactive.
func NewRealLine(pin int) (*RealLine, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request alert pin %d: %w", pin, err)
	}

	return &RealLine{chip: chip, line: line}, nil
}

// Set drives the line active or inactive.
func (l *RealLine) Set(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set alert pin: %w", err)
	}
	return nil
}

// Close releases GPIO resources. The pin is reconfigured to input with
// pull-down (matching Pi boot defaults) before closing so external
// indicator hardware is left in a known state.
func (l *RealLine) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure alert pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close alert pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
