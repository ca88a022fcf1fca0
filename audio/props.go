package audio

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Props holds the settings of a device. Values are swapped atomically, so the
// audio thread reads them while the REPL changes them. Everything has to be
// registered before the device starts playing.
type Props struct {
	props map[string]*prop
}

type prop struct {
	value atomic.Value
	set   setter
}

// setter validates v and stores it in dest.
type setter func(v interface{}, dest *atomic.Value) error

func NewProps() *Props {
	return &Props{props: make(map[string]*prop)}
}

func (p *Props) lookup(key string) (*prop, error) {
	pr, ok := p.props[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return pr, nil
}

// Set validates value and makes it visible to the audio thread.
func (p *Props) Set(key string, value interface{}) error {
	pr, err := p.lookup(key)
	if err != nil {
		return err
	}
	if err := pr.set(value, &pr.value); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	pr, err := p.lookup(key)
	if err != nil {
		return nil, err
	}
	return pr.value.Load(), nil
}

// Keys returns the registered property names in sorted order.
func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.props))
	for k := range p.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds key with its initial value. The returned value is what the
// audio thread loads from.
func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	if _, ok := p.props[key]; ok {
		return nil, fmt.Errorf("property %s already registered", key)
	}
	pr := &prop{set: set}
	if err := set(init, &pr.value); err != nil {
		return nil, fmt.Errorf("register property %s: %w", key, err)
	}
	p.props[key] = pr
	return &pr.value, nil
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	v, err := p.Register(key, set, init)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	setEnvParam = setRange(0.0005, 15.) // seconds
	setLevel    = setRange(-60., 10.)   // dB
	setKey      = setRange(0, 127)
	setFlag     = setRange(0, 1)
)

// setRange accepts ints and floats and stores them as T when they lie in
// [min, max].
func setRange[T int | float64](min, max T) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var n T
		switch v := v.(type) {
		case float64:
			n = T(v)
			if float64(n) != v {
				return fmt.Errorf("value is not a whole number: %v", v)
			}
		case int:
			n = T(v)
		default:
			return fmt.Errorf("value is not a number: %v", v)
		}
		if n < min || n > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, n)
		}
		dest.Store(n)
		return nil
	}
}
