package audio

import "fmt"

// Params describes the render context shared by every device.
type Params struct {
	SampleRate float64
	BufferSize int
	// EventCapacity bounds the events an instrument keeps pending, which is
	// also the most it can receive in one buffer without dropping any.
	EventCapacity int
}

func DefaultParams() Params {
	return Params{
		SampleRate:    44100,
		BufferSize:    512,
		EventCapacity: 64,
	}
}

func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %v", p.SampleRate)
	}
	if p.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive: %v", p.BufferSize)
	}
	if p.EventCapacity <= 0 || p.EventCapacity&(p.EventCapacity-1) != 0 {
		return fmt.Errorf("event capacity must be a power of 2: %v", p.EventCapacity)
	}
	return nil
}
