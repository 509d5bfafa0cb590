package domain

// TeleopState is the phase the teleop loop is in.
type TeleopState int

const (
	WaitingForVoice TeleopState = iota
	Recording
	Transcribing
	Dispatching
)

// String returns a human-readable state name.
func (s TeleopState) String() string {
	switch s {
	case WaitingForVoice:
		return "waiting_for_voice"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Dispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}
