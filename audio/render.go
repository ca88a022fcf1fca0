package audio

import (
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

// Render runs m for frames frames, one buffer at a time, and writes the
// result to w as a 16-bit stereo WAV file.
func Render(w io.Writer, m *Mixer, params Params, frames int) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if frames < 0 {
		return fmt.Errorf("render: negative frame count %d", frames)
	}
	out := wav.NewWriter(w, uint32(frames), 2, uint32(params.SampleRate), 16)

	samples := [][]float32{
		make([]float32, params.BufferSize),
		make([]float32, params.BufferSize),
	}
	buf := make([]wav.Sample, params.BufferSize)
	for pos := 0; pos < frames; pos += params.BufferSize {
		n := params.BufferSize
		if frames-pos < n {
			n = frames - pos
		}
		block := [][]float32{samples[0][:n], samples[1][:n]}
		m.Process(block)
		for i := 0; i < n; i++ {
			buf[i].Values[0] = toInt16(block[0][i])
			buf[i].Values[1] = toInt16(block[1][i])
		}
		if err := out.WriteSamples(buf[:n]); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

func toInt16(v float32) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(v * 32767)
}
