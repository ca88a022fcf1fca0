package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func newTestSampler(t *testing.T, sounds map[int]*Sound) *Instrument {
	t.Helper()
	inst := Sampler(NewProps(), testParams())
	var mapping SoundMapping
	for key, snd := range sounds {
		if err := mapping.Put(key, snd); err != nil {
			t.Fatal(err)
		}
	}
	if err := inst.Set(PropSoundMap, &mapping); err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestSamplerPlaysSoundFromOffset(t *testing.T) {
	inst := newTestSampler(t, map[int]*Sound{60: NewSound("one", ones(4))})
	inst.PlayNote(2, 60, 127, 100)

	out := process(inst, 8)
	for n, v := range out {
		if playing := n >= 2 && n < 6; playing != (v > 0) {
			t.Errorf("frame %d: unexpected value %v", n, v)
		}
	}
}

func TestSamplerGate(t *testing.T) {
	inst := newTestSampler(t, map[int]*Sound{60: NewSound("long", ones(1000))})
	if err := inst.Set("gate.60", 1); err != nil {
		t.Fatal(err)
	}
	inst.PlayNote(0, 60, 127, 4)
	process(inst, 8)

	voice := inst.voices[0].(*samplerVoice)
	if voice.State() == stateActive {
		t.Errorf("gated voice still active after note off")
	}
}

func TestSamplerWithoutGatePlaysToEnd(t *testing.T) {
	inst := newTestSampler(t, map[int]*Sound{60: NewSound("long", ones(1000))})
	inst.PlayNote(0, 60, 127, 4)
	process(inst, 8)

	voice := inst.voices[0].(*samplerVoice)
	if want, got := stateActive, voice.State(); want != got {
		t.Errorf("wrong voice state: want %v, got %v", want, got)
	}
}

func TestSamplerChoke(t *testing.T) {
	inst := newTestSampler(t, map[int]*Sound{
		66: NewSound("closed", ones(1000)),
		68: NewSound("open", ones(1000)),
	})
	if err := inst.Set("choke.68", 66); err != nil {
		t.Fatal(err)
	}
	inst.PlayNote(0, 68, 127, 100)
	inst.PlayNote(4, 66, 127, 100)
	process(inst, 8)

	open := inst.voices[0].(*samplerVoice)
	if want, got := stateReleased, open.State(); want != got {
		t.Errorf("open hat not choked: want state %v, got %v", want, got)
	}
	closed := inst.voices[1].(*samplerVoice)
	if want, got := stateActive, closed.State(); want != got {
		t.Errorf("wrong state for closed hat: want %v, got %v", want, got)
	}
}

func TestSoundMappingRange(t *testing.T) {
	var m SoundMapping
	snd := NewSound("a", nil)
	if err := m.Put(rootPitch+numKeys, snd); err == nil {
		t.Errorf("expected error for key out of range")
	}
	if err := m.Put(rootPitch, snd); err != nil {
		t.Fatal(err)
	}
	if m.Get(rootPitch) != snd {
		t.Errorf("sound not mapped to root pitch")
	}
	if m.Get(0) != nil {
		t.Errorf("expected no sound for key 0")
	}
}

func TestLoadSound(t *testing.T) {
	var mixer Mixer
	mixer.AddSources(constant(0.5))
	var buf bytes.Buffer
	if err := Render(&buf, &mixer, testParams(), 10); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "half.wav")
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	snd, err := LoadSound(file)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 10, snd.Frames(); want != got {
		t.Errorf("wrong number of frames: want %v, got %v", want, got)
	}
	if want, got := file, snd.File(); want != got {
		t.Errorf("wrong file name: want %v, got %v", want, got)
	}
	for n, v := range snd.buf {
		if v < 0.49 || v > 0.51 {
			t.Errorf("frame %d: want about 0.5, got %v", n, v)
		}
	}
}

func TestLoadSoundMissingFile(t *testing.T) {
	if _, err := LoadSound(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
