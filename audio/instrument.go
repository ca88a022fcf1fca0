package audio

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"

	"github.com/mrdg/cue/envelope"
	"github.com/mrdg/cue/event"
)

const numVoices = 12

type voiceState int

const (
	stateFree voiceState = iota
	stateActive
	stateReleased
)

type Voice interface {
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
	Process(buf []float64)
	State() voiceState
	Notify(pitch int)
}

// Instrument renders a set of voices. Notes and level changes are handed
// over through lock-free buffers and kept in frame order until the render
// callback reaches them, so a voice starts on the exact frame it was
// scheduled for.
type Instrument struct {
	*Props
	voices []Voice

	notes  *eventBuffer[event.RawMidi]
	levels *eventBuffer[float64]

	// pending holds note messages relative to the start of the next
	// buffer. Note offs can be several buffers away.
	pending *event.Queue[event.RawMidi]
	// automation is a level offset in dB on top of the level property.
	automation *envelope.Staircase[float64]

	buf     []float64
	gains   []float64
	level   *atomic.Value
	dropped atomic.Uint64
}

const propLevel = "level"

func NewInstrument(props *Props, params Params, voices []Voice) *Instrument {
	// Every note takes two slots: its note on and its note off.
	capacity := 2 * params.EventCapacity
	instrument := &Instrument{
		Props:      props,
		notes:      newEventBuffer[event.RawMidi](capacity),
		levels:     newEventBuffer[float64](params.EventCapacity),
		pending:    event.NewQueue[event.RawMidi](capacity),
		automation: envelope.NewStaircase(0.0, params.EventCapacity),
		buf:        make([]float64, params.BufferSize),
		gains:      make([]float64, params.BufferSize),
		level:      props.MustRegister(propLevel, setLevel, 0.),
	}
	instrument.voices = append(instrument.voices, voices...)
	return instrument
}

// PlayNote schedules a note offset frames into the next buffer. Its note off
// follows duration frames later.
func (i *Instrument) PlayNote(offset, pitch, velocity, duration int) {
	if pitch < 0 || pitch > 127 || offset < 0 {
		return
	}
	if velocity < 1 {
		velocity = 1
	} else if velocity > 127 {
		velocity = 127
	}
	if duration < 1 {
		duration = 1
	}
	key := uint8(pitch)
	i.HandleEvent(event.NewTimed(uint32(offset), event.NoteOn(0, key, uint8(velocity))))
	i.HandleEvent(event.NewTimed(uint32(offset+duration), event.NoteOff(0, key)))
}

// HandleEvent schedules a MIDI message at a frame offset into the next
// buffer. Messages other than note on and note off are ignored when they
// are reached.
func (i *Instrument) HandleEvent(ev event.Timed[event.RawMidi]) {
	if !i.notes.push(ev) {
		i.dropped.Add(1)
		log.Printf("instrument: note buffer full, dropped %v at frame %d", ev.Event, ev.TimeInFrames)
	}
}

// SetLevel schedules a level change of db relative to the level property.
func (i *Instrument) SetLevel(offset int, db float64) {
	if offset < 0 {
		return
	}
	if !i.levels.push(event.NewTimed(uint32(offset), db)) {
		i.dropped.Add(1)
		log.Printf("instrument: level buffer full, dropped %v dB at frame %d", db, offset)
	}
}

// Dropped returns how many scheduled events were lost because the instrument
// had too many pending.
func (i *Instrument) Dropped() uint64 {
	return i.dropped.Load()
}

// noteCollision orders messages that land on the same frame. A note off
// goes before a note on for the same key, so a retriggered note is not cut
// by the end of the previous one.
func noteCollision(old, new *event.RawMidi) event.CollisionHandling {
	switch {
	case *old == *new:
		return event.IgnoreNew
	case new.Status() == event.StatusNoteOff && old.Status() == event.StatusNoteOn &&
		new.Key() == old.Key() && new.Channel() == old.Channel():
		return event.InsertNewBeforeOld
	default:
		return event.InsertNewAfterOld
	}
}

func (i *Instrument) queueNote(ev event.Timed[event.RawMidi]) {
	first, _ := i.pending.First()
	rejected := i.pending.Full() && ev.TimeInFrames <= first.TimeInFrames
	displaced, ok := i.pending.Push(ev, noteCollision)
	if !ok || (displaced == ev && !rejected) {
		// An identical message on the same frame is a duplicate, not a drop.
		return
	}
	i.dropped.Add(1)
	log.Printf("instrument: too many pending events, dropped %v at frame %d",
		displaced.Event, displaced.TimeInFrames)
}

func (i *Instrument) queueLevel(ev event.Timed[float64]) {
	displaced, ok := i.automation.InsertEvent(ev)
	if !ok || displaced.TimeInFrames == ev.TimeInFrames {
		// Same frame: the newer level wins.
		return
	}
	i.dropped.Add(1)
	log.Printf("instrument: too many level changes, dropped %v dB at frame %d",
		displaced.Event, displaced.TimeInFrames)
}

func (i *Instrument) Process(samples [][]float32) {
	n := len(samples[0])
	if n > len(i.buf) {
		panic(fmt.Sprintf("instrument: buffer of %d frames exceeds buffer size %d", n, len(i.buf)))
	}
	buf := i.buf[:n]

	i.notes.iter(-1, i.queueNote)
	i.levels.iter(-1, i.queueLevel)

	// Render up to the next pending message, handle everything on that
	// frame and continue from there.
	for pos := 0; pos < n; {
		next := n
		if ev, ok := i.pending.First(); ok && int(ev.TimeInFrames) < n {
			next = int(ev.TimeInFrames)
		}
		i.render(buf[pos:next])
		pos = next
		if pos == n {
			break
		}
		for ev := range i.pending.Drain(uint32(pos + 1)).All() {
			i.handle(ev.Event)
		}
	}
	i.pending.ShiftTime(uint32(n))

	gains := i.gains[:n]
	i.automation.Fill(gains)
	base := i.level.Load().(float64)
	db, gain := math.NaN(), 0.
	for k := range buf {
		if gains[k] != db {
			db = gains[k]
			gain = dbToGain(base + db)
		}
		sample := float32(gain * buf[k])
		samples[0][k] += sample
		samples[1][k] += sample
		buf[k] = 0
	}
	i.automation.ForgetPast(uint32(n))
}

func (i *Instrument) render(buf []float64) {
	if len(buf) == 0 {
		return
	}
	for _, voice := range i.voices {
		if voice.State() == stateFree {
			continue
		}
		voice.Process(buf)
	}
}

func (i *Instrument) handle(msg event.RawMidi) {
	var ch, key, vel uint8
	m := msg.Message()
	switch {
	case m.GetNoteStart(&ch, &key, &vel):
		for _, voice := range i.voices {
			voice.Notify(int(key))
		}
		voice := i.findFreeVoice()
		if voice == nil {
			// TODO: implement some kind of voice stealing mechanism
			log.Printf("instrument: no free voice available")
			return
		}
		voice.NoteOn(int(key), int(vel))
	case m.GetNoteEnd(&ch, &key):
		for _, voice := range i.voices {
			voice.NoteOff(int(key))
		}
	}
}

func (i *Instrument) findFreeVoice() Voice {
	for _, voice := range i.voices {
		if voice.State() == stateFree {
			return voice
		}
	}
	return nil
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20.0)
}
