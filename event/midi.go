package event

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status bytes, without the channel nibble.
const (
	StatusNoteOff uint8 = 0x80
	StatusNoteOn  uint8 = 0x90
	StatusCC      uint8 = 0xB0
)

// RawMidi is a channel message of one to three bytes, stored inline so that
// it can be queued without allocating.
type RawMidi struct {
	data   [3]byte
	length uint8
}

// TryRawMidi copies b into a RawMidi. It fails if b is not one to three
// bytes long.
func TryRawMidi(b []byte) (RawMidi, bool) {
	if len(b) < 1 || len(b) > 3 {
		return RawMidi{}, false
	}
	var r RawMidi
	r.length = uint8(copy(r.data[:], b))
	return r, true
}

// NewRawMidi is like TryRawMidi but panics on a bad length.
func NewRawMidi(b []byte) RawMidi {
	r, ok := TryRawMidi(b)
	if !ok {
		panic(fmt.Sprintf("event: raw midi event must be 1 to 3 bytes, got %d", len(b)))
	}
	return r
}

// RawMidiFrom converts a gomidi message. Messages longer than three bytes,
// such as system exclusive ones, are not channel messages and fail.
func RawMidiFrom(msg gomidi.Message) (RawMidi, bool) {
	return TryRawMidi([]byte(msg))
}

func NoteOn(channel, key, velocity uint8) RawMidi {
	return RawMidi{data: [3]byte{StatusNoteOn | channel&0x0F, key & 0x7F, velocity & 0x7F}, length: 3}
}

func NoteOff(channel, key uint8) RawMidi {
	return RawMidi{data: [3]byte{StatusNoteOff | channel&0x0F, key & 0x7F, 0}, length: 3}
}

// Data returns the message including the zero padding.
func (r RawMidi) Data() [3]byte { return r.data }

func (r RawMidi) Len() int { return int(r.length) }

func (r RawMidi) Bytes() []byte { return r.data[:r.length] }

// Message returns r as a gomidi message for decoding.
func (r RawMidi) Message() gomidi.Message { return gomidi.Message(r.Bytes()) }

// Status returns the status byte without the channel.
func (r RawMidi) Status() uint8 { return r.data[0] & 0xF0 }

func (r RawMidi) Channel() uint8 { return r.data[0] & 0x0F }

// Key returns the second byte, which is the key for note messages.
func (r RawMidi) Key() uint8 { return r.data[1] }

func (r RawMidi) String() string {
	var b strings.Builder
	b.WriteString("RawMidi(")
	for i, c := range r.Bytes() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	b.WriteByte(')')
	return b.String()
}
