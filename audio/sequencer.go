package audio

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
	levels     []levelPoint
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

type Playable interface {
	PlayNote(offset, pitch, velocity, duration int)
}

// Automatable is implemented by instruments whose level can be scheduled.
type Automatable interface {
	SetLevel(offset int, db float64)
}

func (c *Clip) AddNote(position float64, pitch, velocity int, length float64) {
	if pitch < 0 || pitch > 127 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

// AddLevel sets the instrument level to db from position on. The level
// holds until the next level point, wrapping around the end of the clip.
func (c *Clip) AddLevel(position float64, db float64) {
	c.levels = append(c.levels, levelPoint{pos: int(position * PPQN), db: db})
}

// Clone returns a copy of c that can be changed while c is playing.
func (c *Clip) Clone() *Clip {
	clone := *c
	clone.notes = append([]note(nil), c.notes...)
	clone.levels = append([]levelPoint(nil), c.levels...)
	return &clone
}

func (c *Clip) Instrument() Playable { return c.instrument }

// Beats returns the length of the clip in beats.
func (c *Clip) Beats() float64 { return float64(c.Length) / PPQN }

// RemovePitch removes every note of pitch from c.
func (c *Clip) RemovePitch(pitch int) {
	notes := c.notes[:0]
	for _, n := range c.notes {
		if n.pitch != pitch {
			notes = append(notes, n)
		}
	}
	c.notes = notes
}

// Pitches returns the pitches played by c in ascending order.
func (c *Clip) Pitches() []int {
	seen := make(map[int]bool)
	var pitches []int
	for _, n := range c.notes {
		if !seen[n.pitch] {
			seen[n.pitch] = true
			pitches = append(pitches, n.pitch)
		}
	}
	sort.Ints(pitches)
	return pitches
}

// Grid divides c into steps equal parts and reports for each part whether
// a note of pitch starts in it.
func (c *Clip) Grid(pitch, steps int) []bool {
	grid := make([]bool, steps)
	if steps <= 0 || c.Length <= 0 {
		return grid
	}
	for _, n := range c.notes {
		if i := n.pos * steps / c.Length; n.pitch == pitch && i < steps {
			grid[i] = true
		}
	}
	return grid
}

// LevelPoints calls f for each level point in order of position.
func (c *Clip) LevelPoints(f func(beat, db float64)) {
	points := append([]levelPoint(nil), c.levels...)
	sort.Slice(points, func(i, j int) bool { return points[i].pos < points[j].pos })
	for _, lp := range points {
		f(float64(lp.pos)/PPQN, lp.db)
	}
}

// Notes returns the number of notes in the clip.
func (c *Clip) Notes() int { return len(c.notes) }

// Levels returns the number of level points in the clip.
func (c *Clip) Levels() int { return len(c.levels) }

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

type levelPoint struct {
	pos int
	db  float64
}

type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	sampleRate  float64
	totalPulses uint64
}

func NewSequencer(props *Props, params Params) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		sampleRate: params.SampleRate,
		clips:      props.MustRegister("clips", setClips, clips),
		bpm:        props.MustRegister("bpm", setRange(1., 500.), 120.0),
	}
	return seq
}

func (s *Sequencer) Clips() map[string]*Clip {
	return s.clips.Load().(map[string]*Clip)
}

func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	w := window{samplesPerPulse: s.sampleRate / ((bpm * PPQN) / 60.)}

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		w.length = clip.Length
		w.pos = int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		w.next = w.pos + numPulses                       // next position within the clip

		for _, note := range clip.notes {
			if offset, ok := w.offset(note.pos); ok {
				duration := int(note.length * s.sampleRate / (bpm / 60.))
				clip.instrument.PlayNote(offset, note.pitch, note.velocity, duration)
			}
		}
		if a, ok := clip.instrument.(Automatable); ok {
			for _, lp := range clip.levels {
				if offset, ok := w.offset(lp.pos); ok {
					a.SetLevel(offset, lp.db)
				}
			}
		}
	}
	s.totalPulses += uint64(numPulses)
}

// window is the range of clip positions covered by one buffer.
type window struct {
	pos, next, length int
	samplesPerPulse   float64
}

// offset converts a clip position into a frame offset within the buffer.
func (w window) offset(pos int) (int, bool) {
	if w.next > w.length {
		// We've reached the end of the clip so also check start of clip for notes to schedule.
		if pos >= w.pos {
			return int(math.Round(float64(pos-w.pos) * w.samplesPerPulse)), true
		}
		if pos < w.next-w.length {
			return int(math.Round(float64(w.length-w.pos+pos) * w.samplesPerPulse)), true
		}
		return 0, false
	}
	if pos >= w.pos && pos < w.next {
		return int(math.Round(float64(pos-w.pos) * w.samplesPerPulse)), true
	}
	return 0, false
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
