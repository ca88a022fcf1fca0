package audio

import (
	"reflect"
	"testing"
)

func TestProps(t *testing.T) {
	props := NewProps()
	level := props.MustRegister("level", setLevel, 0.)
	props.MustRegister("choke", setKey, 0)

	if err := props.Set("level", -6); err != nil {
		t.Fatal(err)
	}
	if want, got := -6.0, level.Load().(float64); want != got {
		t.Errorf("wrong level: want %v, got %v", want, got)
	}
	if err := props.Set("level", 20.); err == nil {
		t.Errorf("expected range error")
	}
	if err := props.Set("level", "loud"); err == nil {
		t.Errorf("expected type error")
	}
	if err := props.Set("missing", 1); err == nil {
		t.Errorf("expected error for unknown property")
	}
	if err := props.Set("choke", 66.); err != nil {
		t.Fatal(err)
	}
	if v, err := props.Get("choke"); err != nil || v != 66 {
		t.Errorf("wrong choke: %v, %v", v, err)
	}
	if err := props.Set("choke", 66.5); err == nil {
		t.Errorf("expected error for fractional key")
	}
	if err := props.Set("choke", 128); err == nil {
		t.Errorf("expected range error")
	}
	if _, err := props.Register("choke", setKey, 0); err == nil {
		t.Errorf("expected error for duplicate property")
	}
	if want, got := []string{"choke", "level"}, props.Keys(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong keys: want %v, got %v", want, got)
	}
}

func TestRegisterInvalidDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	NewProps().MustRegister("level", setLevel, 100.)
}

func TestLoadPreset(t *testing.T) {
	inst := Sampler(NewProps(), testParams())
	for _, name := range Presets() {
		if err := LoadPreset(name, inst); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	if err := LoadPreset("missing", inst); err == nil {
		t.Errorf("expected error for unknown preset")
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("default params are invalid: %v", err)
	}
	for _, p := range []Params{
		{SampleRate: 0, BufferSize: 512, EventCapacity: 64},
		{SampleRate: 44100, BufferSize: 0, EventCapacity: 64},
		{SampleRate: 44100, BufferSize: 512, EventCapacity: 48},
	} {
		if err := p.Validate(); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}
