package respeaker

import (
	"fmt"
	"sync"
)

// Compile-time interface check.
var _ ControlDevice = (*Simulator)(nil)

type regKey struct {
	module uint16
	offset uint16
}

// Transfer is one control transfer seen by the simulator.
type Transfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Data        []byte
}

// Simulator is an in-process stand-in for the array. It keeps a value
// per register, answers reads in the device's wire format and records
// every transfer. It satisfies ControlDevice.
type Simulator struct {
	reg *Registry

	mu        sync.Mutex
	values    map[regKey]float64
	scripts   map[regKey][]float64
	sources   map[regKey]func() float64
	version   byte
	failNext  error
	shortNext bool
	transfers []Transfer
}

// NewSimulator creates a simulator with every register at its minimum.
func NewSimulator(reg *Registry) *Simulator {
	s := &Simulator{
		reg:     reg,
		values:  make(map[regKey]float64),
		scripts: make(map[regKey][]float64),
		sources: make(map[regKey]func() float64),
		version: 3,
	}
	for _, d := range reg.All() {
		s.values[regKey{d.Module, d.Offset}] = d.Min
	}
	return s
}

// Set stores a register value as the device would report it.
func (s *Simulator) Set(name string, v float64) error {
	k, err := s.key(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[k] = v
	s.mu.Unlock()
	return nil
}

// Value returns the stored value of a register.
func (s *Simulator) Value(name string) (float64, error) {
	k, err := s.key(name)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[k], nil
}

// Script queues values returned by successive reads of name. Once the
// queue drains, reads fall back to the stored value.
func (s *Simulator) Script(name string, values ...float64) error {
	k, err := s.key(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.scripts[k] = append(s.scripts[k], values...)
	s.mu.Unlock()
	return nil
}

// Source makes reads of name call fn. Scripted values take precedence.
func (s *Simulator) Source(name string, fn func() float64) error {
	k, err := s.key(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sources[k] = fn
	s.mu.Unlock()
	return nil
}

// SetVersion sets the firmware version byte.
func (s *Simulator) SetVersion(v byte) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// FailNext makes the next transfer return err.
func (s *Simulator) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// ShortNext makes the next transfer move one byte less than asked.
func (s *Simulator) ShortNext() {
	s.mu.Lock()
	s.shortNext = true
	s.mu.Unlock()
}

// Transfers returns a copy of the transfer log.
func (s *Simulator) Transfers() []Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// Control implements ControlDevice.
func (s *Simulator) Control(rType, request uint8, val, idx uint16, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logged := make([]byte, len(data))
	copy(logged, data)
	s.transfers = append(s.transfers, Transfer{RequestType: rType, Request: request, Value: val, Index: idx, Data: logged})

	short := s.shortNext
	s.shortNext = false
	if err := s.failNext; err != nil {
		s.failNext = nil
		return 0, err
	}

	var n int
	var err error
	switch {
	case rType == requestTypeOut && request == requestParameter:
		n, err = s.write(idx, data)
	case rType == requestTypeIn && request == requestParameter:
		n, err = s.read(idx, val, data)
	case rType == requestTypeIn && request == requestVersion:
		if len(data) < 1 {
			return 0, fmt.Errorf("simulator: version buffer empty")
		}
		data[0] = s.version
		n = 1
	default:
		return 0, fmt.Errorf("simulator: unsupported request type=%#x request=%#x", rType, request)
	}
	if err != nil {
		return n, err
	}
	if short {
		n--
	}
	return n, nil
}

func (s *Simulator) write(module uint16, payload []byte) (int, error) {
	offset, v, _, err := DecodeWrite(payload)
	if err != nil {
		return 0, err
	}
	k := regKey{module, offset}
	if _, ok := s.values[k]; !ok {
		return 0, fmt.Errorf("simulator: no register at module %d offset %d", module, offset)
	}
	s.values[k] = v
	return len(payload), nil
}

func (s *Simulator) read(module, val uint16, buf []byte) (int, error) {
	offset := val &^ (readFlag | readIntFlag)
	k := regKey{module, offset}
	d, ok := s.descriptorAt(k)
	if !ok {
		return 0, fmt.Errorf("simulator: no register at module %d offset %d", module, offset)
	}

	v := s.values[k]
	if q := s.scripts[k]; len(q) > 0 {
		v, s.scripts[k] = q[0], q[1:]
	} else if fn := s.sources[k]; fn != nil {
		v = fn()
	}
	return copy(buf, EncodeRead(d.Type, v)), nil
}

func (s *Simulator) descriptorAt(k regKey) (Descriptor, bool) {
	for _, d := range s.reg.order {
		if d.Module == k.module && d.Offset == k.offset {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (s *Simulator) key(name string) (regKey, error) {
	d, err := s.reg.Lookup(name)
	if err != nil {
		return regKey{}, fmt.Errorf("simulator: %w", err)
	}
	return regKey{d.Module, d.Offset}, nil
}
