package audio

import (
	"math"
	"reflect"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/mrdg/cue/event"
)

// testVoice adds 1 to every frame it renders while a note is held.
type testVoice struct {
	state voiceState
	pitch int
}

func (v *testVoice) NoteOn(pitch, velocity int) {
	v.state = stateActive
	v.pitch = pitch
}

func (v *testVoice) NoteOff(pitch int) {
	if v.state == stateActive && v.pitch == pitch {
		v.state = stateFree
	}
}

func (v *testVoice) Process(buf []float64) {
	for i := range buf {
		buf[i] += 1
	}
}

func (v *testVoice) State() voiceState { return v.state }
func (v *testVoice) Notify(pitch int)  {}

func testParams() Params {
	return Params{SampleRate: 44100, BufferSize: 8, EventCapacity: 4}
}

func newTestInstrument(params Params, numVoices int) *Instrument {
	voices := make([]Voice, numVoices)
	for i := range voices {
		voices[i] = &testVoice{}
	}
	return NewInstrument(NewProps(), params, voices)
}

func process(i *Instrument, frames int) []float32 {
	samples := [][]float32{make([]float32, frames), make([]float32, frames)}
	i.Process(samples)
	return samples[0]
}

func TestInstrumentStartsNotesOnExactFrame(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	inst.PlayNote(3, 60, 100, 2)

	if want, got := []float32{0, 0, 0, 1, 1, 0, 0, 0}, process(inst, 8); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestInstrumentCarriesNoteOffAcrossBuffers(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	inst.PlayNote(6, 60, 100, 4)

	var out []float32
	for n := 0; n < 3; n++ {
		out = append(out, process(inst, 8)...)
	}
	want := []float32{
		0, 0, 0, 0, 0, 0, 1, 1,
		1, 1, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	if !reflect.DeepEqual(want, out) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, out)
	}
}

func TestInstrumentShorterBuffer(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	inst.PlayNote(2, 60, 100, 3)

	got := append(process(inst, 3), process(inst, 5)...)
	if want := []float32{0, 0, 1, 1, 1, 0, 0, 0}; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestInstrumentRetriggerOnSameFrame(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	// Schedule the second note first: its note on is already queued when
	// the note off of the first note arrives on the same frame.
	inst.PlayNote(4, 60, 100, 4)
	inst.PlayNote(0, 60, 100, 4)

	if want, got := []float32{1, 1, 1, 1, 1, 1, 1, 1}, process(inst, 8); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestInstrumentIgnoresDuplicateNotes(t *testing.T) {
	inst := newTestInstrument(testParams(), 2)
	inst.PlayNote(2, 60, 100, 2)
	inst.PlayNote(2, 60, 100, 2)

	if want, got := []float32{0, 0, 1, 1, 0, 0, 0, 0}, process(inst, 8); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
	if got := inst.Dropped(); got != 0 {
		t.Errorf("duplicates counted as dropped: %v", got)
	}
}

func TestInstrumentLevelAutomation(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	inst.PlayNote(0, 60, 100, 16)
	inst.SetLevel(4, -20*math.Log10(2))

	out := append(process(inst, 8), process(inst, 8)...)
	for n, v := range out {
		want := 1.0
		if n >= 4 {
			want = 0.5
		}
		if math.Abs(float64(v)-want) > 1e-6 {
			t.Errorf("frame %d: want %v, got %v", n, want, v)
		}
	}
}

func TestInstrumentLevelProperty(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	if err := inst.Set("level", -6.0); err != nil {
		t.Fatal(err)
	}
	inst.PlayNote(0, 60, 100, 8)
	inst.SetLevel(0, 6.0)

	for n, v := range process(inst, 8) {
		if math.Abs(float64(v)-1) > 1e-6 {
			t.Errorf("frame %d: want 1, got %v", n, v)
		}
	}
}

func TestInstrumentCountsDroppedEvents(t *testing.T) {
	params := testParams()
	params.EventCapacity = 2
	inst := newTestInstrument(params, 4)

	// Long notes leave their note offs pending until the queue overflows.
	for k := 0; k < 4; k++ {
		inst.PlayNote(0, 60+k, 100, 100)
		process(inst, 8)
	}
	if want, got := uint64(1), inst.Dropped(); want != got {
		t.Errorf("wrong number of dropped events: want %v, got %v", want, got)
	}
}

func TestInstrumentDropsNotesWhenBufferIsFull(t *testing.T) {
	params := testParams()
	inst := newTestInstrument(params, params.EventCapacity+1)

	// Scheduling runs on the render goroutine, so a full buffer must not wait
	// for Process.
	done := make(chan struct{})
	go func() {
		for k := 0; k <= params.EventCapacity; k++ {
			inst.PlayNote(0, 60+k, 100, 4)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PlayNote blocked on a full note buffer")
	}

	// The last note loses both its note on and its note off.
	if want, got := uint64(2), inst.Dropped(); want != got {
		t.Errorf("wrong number of dropped events: want %v, got %v", want, got)
	}
	want := []float32{4, 4, 4, 4, 0, 0, 0, 0}
	if got := process(inst, 8); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestInstrumentDropsLevelsWhenBufferIsFull(t *testing.T) {
	params := testParams()
	inst := newTestInstrument(params, 1)
	for k := 0; k <= params.EventCapacity; k++ {
		inst.SetLevel(k, 0)
	}
	if want, got := uint64(1), inst.Dropped(); want != got {
		t.Errorf("wrong number of dropped events: want %v, got %v", want, got)
	}
	process(inst, 8)
	if want, got := uint64(1), inst.Dropped(); want != got {
		t.Errorf("queued levels counted as dropped: want %v, got %v", want, got)
	}
}

func TestInstrumentPanicsOnOversizedBuffer(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	process(inst, 9)
}

func TestNoteCollision(t *testing.T) {
	on := event.NoteOn(0, 60, 100)
	off := event.NoteOff(0, 60)
	otherOff := event.NoteOff(0, 61)

	tests := []struct {
		old, new event.RawMidi
		want     event.CollisionHandling
	}{
		{on, on, event.IgnoreNew},
		{on, off, event.InsertNewBeforeOld},
		{off, on, event.InsertNewAfterOld},
		{on, otherOff, event.InsertNewAfterOld},
		{on, event.NoteOff(1, 60), event.InsertNewAfterOld},
	}
	for _, test := range tests {
		if got := noteCollision(&test.old, &test.new); got != test.want {
			t.Errorf("noteCollision(%v, %v): want %v, got %v", test.old, test.new, test.want, got)
		}
	}
}

func TestInstrumentHandlesRawMidi(t *testing.T) {
	inst := newTestInstrument(testParams(), 1)
	var h event.Handler[event.Timed[event.RawMidi]] = inst

	on, ok := event.RawMidiFrom(gomidi.NoteOn(0, 60, 100))
	if !ok {
		t.Fatal("note on does not fit a raw midi event")
	}
	h.HandleEvent(event.NewTimed(1, on))
	h.HandleEvent(event.NewTimed(2, event.NewRawMidi([]byte{0xC0, 0x05}))) // program change
	h.HandleEvent(event.NewTimed(5, event.NoteOff(0, 60)))

	if want, got := []float32{0, 1, 1, 1, 1, 0, 0, 0}, process(inst, 8); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong output:\nwant: %v\ngot:  %v", want, got)
	}
}
