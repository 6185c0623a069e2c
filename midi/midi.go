package midi

import (
	"context"
	"fmt"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/mrdg/rack/log"
)

const (
	bufferSize   = 1024
	readSize     = 64
	pollInterval = time.Millisecond
)

// Handler receives three byte MIDI messages: status, data1, data2.
type Handler interface {
	HandleMidi(msg []byte)
}

type reader interface {
	Poll() (bool, error)
	Read(max int) ([]portmidi.Event, error)
	Close() error
}

// Device describes a MIDI input.
type Device struct {
	ID   int
	Name string
}

func (d Device) String() string { return fmt.Sprintf("%d: %s", d.ID, d.Name) }

// Inputs lists the available MIDI input devices. portmidi must be initialized.
func Inputs() []Device {
	var devices []Device
	for id := 0; id < portmidi.CountDevices(); id++ {
		info := portmidi.Info(portmidi.DeviceID(id))
		if info == nil || !info.IsInputAvailable {
			continue
		}
		devices = append(devices, Device{ID: id, Name: info.Name})
	}
	return devices
}

// Init initializes portmidi. Call Terminate when done.
func Init() error {
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("initialize portmidi: %w", err)
	}
	return nil
}

func Terminate() error {
	return portmidi.Terminate()
}

// Listener reads an input device and passes every message to a handler.
type Listener struct {
	in      reader
	handler Handler
	log     log.Logger
}

// Open opens the input device with the given id. A negative id opens the
// default input.
func Open(id int, h Handler, l log.Logger) (*Listener, error) {
	device := portmidi.DeviceID(id)
	if id < 0 {
		device = portmidi.DefaultInputDeviceID()
	}
	in, err := portmidi.NewInputStream(device, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("open midi input %d: %w", device, err)
	}
	return newListener(in, h, l), nil
}

func newListener(in reader, h Handler, l log.Logger) *Listener {
	return &Listener{in: in, handler: h, log: l}
}

// Run delivers messages until ctx is done or the device fails.
func (l *Listener) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.drain(); err != nil {
				return err
			}
		}
	}
}

func (l *Listener) drain() error {
	for {
		ok, err := l.in.Poll()
		if err != nil {
			return fmt.Errorf("poll midi input: %w", err)
		}
		if !ok {
			return nil
		}
		events, err := l.in.Read(readSize)
		if err != nil {
			return fmt.Errorf("read midi input: %w", err)
		}
		for _, ev := range events {
			msg := []byte{byte(ev.Status), byte(ev.Data1), byte(ev.Data2)}
			l.log.Debug("midi: ", msg)
			l.handler.HandleMidi(msg)
		}
	}
}

func (l *Listener) Close() error {
	return l.in.Close()
}
