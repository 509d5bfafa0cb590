// Package respeaker talks to the ReSpeaker USB microphone array over its
// vendor control protocol.
//
// The array exposes its DSP tunables as typed registers addressed by a
// module id and a byte offset. Writes send a 12-byte payload
//
//	[offset:int32][value:int32 | float32 bits][type:int32]   (type 1 = int, 0 = float)
//
// and reads return two int32 words. Int registers read back the first
// word; float registers read back mantissa*2^exponent.
//
// Layering, leaves first: Registry (named descriptors) → codec
// (EncodeWrite/DecodeRead) → Client (control transfers) → Tuning
// (named reads/writes) → Gate (voice activity).
package respeaker

import (
	"fmt"
	"sort"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
)

// ValueType is the wire type of a register.
type ValueType int

const (
	Int ValueType = iota
	Float
)

func (t ValueType) String() string {
	if t == Int {
		return "int"
	}
	return "float"
}

// Access is the access mode of a register.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

func (a Access) String() string {
	if a == ReadWrite {
		return "rw"
	}
	return "ro"
}

// Module ids of the published register map.
const (
	ModuleAEC uint16 = 18 // echo canceller, RT60
	ModuleDSP uint16 = 19 // AGC, noise suppression, VAD
	ModuleKWD uint16 = 20 // keyword detection (unused)
	ModuleDOA uint16 = 21 // direction of arrival
)

// Names of the registers the teleop path depends on.
const (
	ParamVoiceActivity = "VOICEACTIVITY"
	ParamVADThreshold  = "GAMMAVAD_SR"
	ParamDOAAngle      = "DOAANGLE"
)

// Descriptor describes one named register. Max and Min document the
// range and are not enforced on write.
type Descriptor struct {
	Name   string
	Module uint16
	Offset uint16
	Type   ValueType
	Max    float64
	Min    float64
	Access Access
	Info   []string
}

// Registry is an immutable name → descriptor table.
type Registry struct {
	byName map[string]Descriptor
	order  []Descriptor
}

// NewRegistry builds a registry from descriptors. Duplicate names are
// rejected.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate parameter %q", d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d)
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		if r.order[i].Module != r.order[j].Module {
			return r.order[i].Module < r.order[j].Module
		}
		return r.order[i].Offset < r.order[j].Offset
	})
	return r, nil
}

// DefaultRegistry returns the registry for the published register map
// of the 6-channel firmware.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(publishedParameters)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for name, or an error wrapping
// domain.ErrUnknownParameter.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownParameter, name)
	}
	return d, nil
}

// Len returns the number of registers.
func (r *Registry) Len() int { return len(r.order) }

// All returns every descriptor ordered by module then offset.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns all register names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ro(name string, module, offset uint16, t ValueType, max, min float64, info ...string) Descriptor {
	return Descriptor{Name: name, Module: module, Offset: offset, Type: t, Max: max, Min: min, Access: ReadOnly, Info: info}
}

func rw(name string, module, offset uint16, t ValueType, max, min float64, info ...string) Descriptor {
	return Descriptor{Name: name, Module: module, Offset: offset, Type: t, Max: max, Min: min, Access: ReadWrite, Info: info}
}

// publishedParameters is the vendor register map. Names, offsets, types
// and access modes must match the firmware exactly.
var publishedParameters = []Descriptor{
	rw("AECFREEZEONOFF", ModuleAEC, 7, Int, 1, 0, "Adaptive Echo Canceler updates inhibit.", "0 = Adaptation enabled", "1 = Freeze adaptation, filter only"),
	rw("AECNORM", ModuleAEC, 19, Float, 16, 0.25, "Limit on norm of AEC filter coefficients"),
	ro("AECPATHCHANGE", ModuleAEC, 25, Int, 1, 0, "AEC Path Change Detection.", "0 = false (no path change detected)", "1 = true (path change detected)"),
	ro("RT60", ModuleAEC, 26, Float, 0.9, 0.25, "Current RT60 estimate in seconds"),
	rw("HPFONOFF", ModuleAEC, 27, Int, 3, 0, "High-pass Filter on microphone signals.", "0 = OFF", "1 = ON - 70 Hz cut-off", "2 = ON - 125 Hz cut-off", "3 = ON - 180 Hz cut-off"),
	rw("RT60ONOFF", ModuleAEC, 28, Int, 1, 0, "RT60 Estimation for AES. 0 = OFF 1 = ON"),
	rw("AECSILENCELEVEL", ModuleAEC, 30, Float, 1, 1e-09, "Threshold for signal detection in AEC [-inf .. 0] dBov (Default: -80dBov = 10log10(1x10-8))"),
	ro("AECSILENCEMODE", ModuleAEC, 31, Int, 1, 0, "AEC far-end silence detection status. ", "0 = false (signal detected) ", "1 = true (silence detected)"),

	rw("AGCONOFF", ModuleDSP, 0, Int, 1, 0, "Automatic Gain Control. ", "0 = OFF ", "1 = ON"),
	rw("AGCMAXGAIN", ModuleDSP, 1, Float, 1000, 1, "Maximum AGC gain factor. ", "[0 .. 60] dB (default 30dB = 20log10(31.6))"),
	rw("AGCDESIREDLEVEL", ModuleDSP, 2, Float, 0.99, 1e-08, "Target power level of the output signal. ", "[-inf .. 0] dBov (default: -23dBov = 10log10(0.005))"),
	rw("AGCGAIN", ModuleDSP, 3, Float, 1000, 1, "Current AGC gain factor. ", "[0 .. 60] dB (default: 0.0dB = 20log10(1.0))"),
	rw("AGCTIME", ModuleDSP, 4, Float, 1, 0.1, "Ramps-up / down time-constant in seconds."),
	rw("CNIONOFF", ModuleDSP, 5, Int, 1, 0, "Comfort Noise Insertion.", "0 = OFF", "1 = ON"),
	rw("FREEZEONOFF", ModuleDSP, 6, Int, 1, 0, "Adaptive beamformer updates.", "0 = Adaptation enabled", "1 = Freeze adaptation, filter only"),
	rw("STATNOISEONOFF", ModuleDSP, 8, Int, 1, 0, "Stationary noise suppression.", "0 = OFF", "1 = ON"),
	rw("GAMMA_NS", ModuleDSP, 9, Float, 3, 0, "Over-subtraction factor of stationary noise. min .. max attenuation"),
	rw("MIN_NS", ModuleDSP, 10, Float, 1, 0, "Gain-floor for stationary noise suppression.", "[-inf .. 0] dB (default: -16dB = 20log10(0.15))"),
	rw("NONSTATNOISEONOFF", ModuleDSP, 11, Int, 1, 0, "Non-stationary noise suppression.", "0 = OFF", "1 = ON"),
	rw("GAMMA_NN", ModuleDSP, 12, Float, 3, 0, "Over-subtraction factor of non- stationary noise. min .. max attenuation"),
	rw("MIN_NN", ModuleDSP, 13, Float, 1, 0, "Gain-floor for non-stationary noise suppression.", "[-inf .. 0] dB (default: -10dB = 20log10(0.3))"),
	rw("ECHOONOFF", ModuleDSP, 14, Int, 1, 0, "Echo suppression.", "0 = OFF", "1 = ON"),
	rw("GAMMA_E", ModuleDSP, 15, Float, 3, 0, "Over-subtraction factor of echo (direct and early components). min .. max attenuation"),
	rw("GAMMA_ETAIL", ModuleDSP, 16, Float, 3, 0, "Over-subtraction factor of echo (tail components). min .. max attenuation"),
	rw("GAMMA_ENL", ModuleDSP, 17, Float, 5, 0, "Over-subtraction factor of non-linear echo. min .. max attenuation"),
	rw("NLATTENONOFF", ModuleDSP, 18, Int, 1, 0, "Non-Linear echo attenuation.", "0 = OFF", "1 = ON"),
	rw("NLAEC_MODE", ModuleDSP, 20, Int, 2, 0, "Non-Linear AEC training mode.", "0 = OFF", "1 = ON - phase 1", "2 = ON - phase 2"),
	ro("SPEECHDETECTED", ModuleDSP, 22, Int, 1, 0, "Speech detection status.", "0 = false (no speech detected)", "1 = true (speech detected)"),
	ro("FSBUPDATED", ModuleDSP, 23, Int, 1, 0, "FSB Update Decision.", "0 = false (FSB was not updated)", "1 = true (FSB was updated)"),
	ro("FSBPATHCHANGE", ModuleDSP, 24, Int, 1, 0, "FSB Path Change Detection.", "0 = false (no path change detected)", "1 = true (path change detected)"),
	rw("TRANSIENTONOFF", ModuleDSP, 29, Int, 1, 0, "Transient echo suppression.", "0 = OFF", "1 = ON"),
	ro("VOICEACTIVITY", ModuleDSP, 32, Int, 1, 0, "VAD voice activity status.", "0 = false (no voice activity)", "1 = true (voice activity)"),
	rw("STATNOISEONOFF_SR", ModuleDSP, 33, Int, 1, 0, "Stationary noise suppression for ASR.", "0 = OFF", "1 = ON"),
	rw("NONSTATNOISEONOFF_SR", ModuleDSP, 34, Int, 1, 0, "Non-stationary noise suppression for ASR.", "0 = OFF", "1 = ON"),
	rw("GAMMA_NS_SR", ModuleDSP, 35, Float, 3, 0, "Over-subtraction factor of stationary noise for ASR. ", "[0.0 .. 3.0] (default: 1.0)"),
	rw("GAMMA_NN_SR", ModuleDSP, 36, Float, 3, 0, "Over-subtraction factor of non-stationary noise for ASR. ", "[0.0 .. 3.0] (default: 1.1)"),
	rw("MIN_NS_SR", ModuleDSP, 37, Float, 1, 0, "Gain-floor for stationary noise suppression for ASR.", "[-inf .. 0] dB (default: -16dB = 20log10(0.15))"),
	rw("MIN_NN_SR", ModuleDSP, 38, Float, 1, 0, "Gain-floor for non-stationary noise suppression for ASR.", "[-inf .. 0] dB (default: -10dB = 20log10(0.3))"),
	rw("GAMMAVAD_SR", ModuleDSP, 39, Float, 1000, 0, "Set the threshold for voice activity detection.", "[-inf .. 60] dB (default: 3.5dB 20log10(1.5))"),

	// KEYWORDDETECT (module 20, offset 0) is not exposed by this firmware.

	ro("DOAANGLE", ModuleDOA, 0, Int, 359, 0, "DOA angle. Current value. Orientation depends on build configuration."),
}
