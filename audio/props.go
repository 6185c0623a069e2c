package audio

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Props stores device configuration that can be read without locks. All
// properties should be registered before any reads take place. A property may
// have watchers, which are called after every successful Set and typically
// forward the new value into a rack as a control event.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter

	mu       sync.Mutex
	watchers map[string][]func(interface{})
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
		watchers:   make(map[string][]func(interface{})),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value interface{}) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	set, ok := p.setters[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := set(value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	p.mu.Lock()
	watchers := p.watchers[key]
	p.mu.Unlock()
	for _, w := range watchers {
		w(prop.Load())
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

// Keys returns the registered property names in sorted order.
func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	var prop atomic.Value
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, set(init, &prop)
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	if prop, err := p.Register(key, set, init); err != nil {
		panic(err)
	} else {
		return prop
	}
}

// Watch calls fn with the stored value every time key is set.
func (p *Props) Watch(key string, fn func(interface{})) error {
	if _, ok := p.properties[key]; !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	p.mu.Lock()
	p.watchers[key] = append(p.watchers[key], fn)
	p.mu.Unlock()
	return nil
}

// MustWatch is like Watch but panics on an unknown key.
func (p *Props) MustWatch(key string, fn func(interface{})) {
	if err := p.Watch(key, fn); err != nil {
		panic(err)
	}
}

// WatchFloat forwards every new value of a float property through fn.
func (p *Props) WatchFloat(key string, fn func(float64)) {
	p.MustWatch(key, func(v interface{}) { fn(v.(float64)) })
}

type setter func(val interface{}, dest *atomic.Value) error

var (
	setEnvParam = setFloat64(0.0005, 15)
	setLevel    = setFloat64(-40, 10)
)

func setFloat64(min, max float64) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}

func setInt(v interface{}, dest *atomic.Value) error {
	switch n := v.(type) {
	case float64:
		dest.Store(int(n))
	case int:
		dest.Store(n)
	default:
		return fmt.Errorf("value is not an int: %v", v)
	}
	return nil
}

// setChoice accepts one of a fixed set of strings.
func setChoice(options ...string) setter {
	return func(v interface{}, dest *atomic.Value) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value is not a string: %v", v)
		}
		for _, o := range options {
			if s == o {
				dest.Store(s)
				return nil
			}
		}
		return fmt.Errorf("not one of %v: %v", options, s)
	}
}
