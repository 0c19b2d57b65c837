package actuator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOLine drives a character-device GPIO line requested as an output.
type GPIOLine struct {
	// line is the requested kernel line handle.
	line *gpiocdev.Line
}

// OpenGPIOLine requests offset on chip (e.g. "gpiochip0") as an output starting low.
func OpenGPIOLine(chip string, offset int, consumer string) (*GPIOLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}

	return &GPIOLine{line: line}, nil
}

// Value reads back the driven level.
func (g *GPIOLine) Value() (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line: %w", err)
	}

	return v == 1, nil
}

// Set drives the line.
func (g *GPIOLine) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}

	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("set line: %w", err)
	}

	return nil
}

// Close releases the line back to the kernel.
func (g *GPIOLine) Close() error {
	return g.line.Close()
}
