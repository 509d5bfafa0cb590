// Package domain defines the core types and interfaces for voice
// teleoperation. All other packages depend on domain; domain depends on
// nothing.
package domain

import "context"

// Robot is the motion command surface of the mobile manipulator. Motion
// calls queue work; PushCommand commits the queued batch.
type Robot interface {
	TranslateBy(ctx context.Context, meters float64) error
	RotateBy(ctx context.Context, radians float64) error
	LiftMoveBy(ctx context.Context, meters float64) error
	ArmMoveBy(ctx context.Context, meters float64) error
	HeadPose(ctx context.Context, name string) error
	PushCommand(ctx context.Context) error
	Stop(ctx context.Context) error
}

// AudioSource captures fixed-size chunks of mono 16-bit PCM. Begin and
// End bracket one recording.
type AudioSource interface {
	Begin(ctx context.Context) error
	CaptureChunk(ctx context.Context) ([]byte, error)
	End() error
}

// Recognizer opens streaming speech-recognition sessions.
type Recognizer interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Session accepts audio in capture order and produces a transcript.
type Session interface {
	Feed(chunk []byte) error
	Finish(ctx context.Context) (string, error)
}

// CycleStore journals teleop cycles.
type CycleStore interface {
	Append(ctx context.Context, c *Cycle) error
	List(ctx context.Context) ([]*Cycle, error)
}

// Notifier shows operator-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
