package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/youpy/go-wav"
)

const PropSoundMap = "sounds.map"
const numKeys = 25

// Sampler returns an instrument that plays the sounds mapped to its keys.
// Every key has its own level, envelope, choke and gate properties.
func Sampler(props *Props, params Params) *Instrument {
	sounds := props.MustRegister(PropSoundMap, setSoundMapping, &SoundMapping{})
	var perKeyProps [numKeys]keyProps
	for n := 0; n < numKeys; n++ {
		note := strconv.Itoa(rootPitch + n)
		var kp keyProps
		kp.envAttack = props.MustRegister("env.attack."+note, setEnvParam, 0.0005)
		kp.envRelease = props.MustRegister("env.release."+note, setEnvParam, 0.01)
		kp.level = props.MustRegister("level."+note, setLevel, 0.)
		kp.choke = props.MustRegister("choke."+note, setKey, 0)
		kp.gate = props.MustRegister("gate."+note, setFlag, 0)
		perKeyProps[n] = kp
	}
	voices := make([]Voice, numVoices)
	for n := range voices {
		voices[n] = &samplerVoice{
			state:    stateFree,
			sounds:   sounds,
			keyProps: perKeyProps,
			env:      &envelope{sampleRate: params.SampleRate},
		}
	}
	return NewInstrument(props, params, voices)
}

type samplerVoice struct {
	sounds   *atomic.Value
	keyProps [numKeys]keyProps
	state    voiceState
	env      *envelope
	buf      []float64
	pos      int
	pitch    int
	velocity float64
}

func (v *samplerVoice) NoteOn(pitch, velocity int) {
	if pitch < rootPitch || pitch >= rootPitch+numKeys {
		log.Printf("sampler: pitch %d out of range", pitch)
		return
	}
	mapping := v.sounds.Load().(*SoundMapping)
	snd := mapping[pitch-rootPitch]
	if snd == nil {
		log.Printf("sampler: no sound mapped to pitch %d", pitch)
		return
	}
	props := v.keyProps[pitch-rootPitch]
	v.buf = snd.buf
	v.pos = 0
	v.state = stateActive
	v.env.attack = props.envAttack.Load().(float64)
	v.env.release = props.envRelease.Load().(float64)
	v.env.startAttack()
	v.pitch = pitch
	v.velocity = float64(velocity) / 127
}

// NoteOff releases the voice if its key is gated. Other keys play their
// sound to the end.
func (v *samplerVoice) NoteOff(pitch int) {
	if v.state != stateActive || v.pitch != pitch {
		return
	}
	if v.keyProps[v.pitch-rootPitch].gate.Load().(int) != 0 {
		v.state = stateReleased
		v.env.startRelease()
	}
}

func (v *samplerVoice) Notify(pitch int) {
	if v.state == stateFree {
		return
	}
	props := v.keyProps[v.pitch-rootPitch]
	if props.choke.Load().(int) == pitch {
		v.stop()
	}
}

func (v *samplerVoice) Process(buf []float64) {
	level := v.keyProps[v.pitch-rootPitch].level.Load().(float64)
	gain := dbToGain(level) * v.velocity

	n := len(buf)
	if nsamples := len(v.buf) - v.pos; nsamples < n {
		n = nsamples
	}
	for i := range buf[:n] {
		buf[i] += v.buf[v.pos] * v.env.value() * gain
		v.pos++
		if v.env.done() {
			break
		}
	}
	if v.pos >= len(v.buf) || v.env.done() {
		v.buf = nil
		v.pos = 0
		v.state = stateFree
		v.pitch = 0
	}
}

func (v *samplerVoice) stop() {
	v.state = stateReleased
	v.env.releaseAfter(0.001)
}

func (v *samplerVoice) State() voiceState { return v.state }

// keyProps stores the properties for a single key.
type keyProps struct {
	envAttack  *atomic.Value
	envRelease *atomic.Value
	level      *atomic.Value
	choke      *atomic.Value
	gate       *atomic.Value
}

type Sound struct {
	buf  []float64
	file string
}

// NewSound returns a mono sound from samples in the range -1 to 1.
func NewSound(name string, samples []float64) *Sound {
	return &Sound{buf: samples, file: name}
}

func (s *Sound) File() string { return s.file }

// Frames returns the length of the sound.
func (s *Sound) Frames() int { return len(s.buf) }

const rootPitch = 60

type SoundMapping [numKeys]*Sound

func (m *SoundMapping) Put(key int, snd *Sound) error {
	if key < rootPitch || key >= rootPitch+numKeys {
		return fmt.Errorf("key %d out of range %d - %d", key, rootPitch, rootPitch+numKeys-1)
	}
	m[key-rootPitch] = snd
	return nil
}

func (m *SoundMapping) Get(key int) *Sound {
	if key < rootPitch || key >= rootPitch+numKeys {
		return nil
	}
	return m[key-rootPitch]
}

func setSoundMapping(v interface{}, dest *atomic.Value) error {
	if m, ok := v.(*SoundMapping); ok {
		dest.Store(m)
		return nil
	} else {
		return fmt.Errorf("property value is not a sound mapping: %v", v)
	}
}

func LoadSound(file string) (*Sound, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snd := Sound{file: file}
	r := wav.NewReader(f)
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for _, sample := range samples {
			snd.buf = append(snd.buf, r.FloatValue(sample, 0))
		}
	}
	return &snd, nil
}
