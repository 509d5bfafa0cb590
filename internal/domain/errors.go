package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrReadOnly         = errors.New("parameter is read-only")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrShortTransfer    = errors.New("short control transfer")
	ErrClosed           = errors.New("transport closed")
	ErrNoMatch          = errors.New("transcript matched no command")
	ErrNotFound         = errors.New("not found")
)

// TransportError reports a failed or malformed control transfer. Op is
// "write", "read" or "version"; Module is the addressed module id.
type TransportError struct {
	Op     string
	Module uint16
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s (module %d): %v", e.Op, e.Module, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolViolationError reports a decoded value outside the declared
// domain of its parameter.
type ProtocolViolationError struct {
	Parameter string
	Value     float64
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s reported %v", e.Parameter, e.Value)
}
