package command

import (
	"context"
	"fmt"
	"math"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Magnitudes are the step sizes of one voice command.
type Magnitudes struct {
	BaseTranslateM float64
	BaseRotateDeg  float64
	LiftM          float64
	ArmM           float64
}

// DefaultMagnitudes are small, safe steps: 1 cm and 1 degree.
func DefaultMagnitudes() Magnitudes {
	return Magnitudes{
		BaseTranslateM: 0.01,
		BaseRotateDeg:  1.0,
		LiftM:          0.01,
		ArmM:           0.01,
	}
}

// Dispatcher turns commands into robot motion calls. It does not flush;
// the caller decides when to call PushCommand.
type Dispatcher struct {
	robot domain.Robot
	mag   Magnitudes
	log   *logger.Logger
}

// NewDispatcher creates a dispatcher driving robot.
func NewDispatcher(robot domain.Robot, mag Magnitudes, log *logger.Logger) *Dispatcher {
	return &Dispatcher{robot: robot, mag: mag, log: log}
}

// Dispatch queues the motion for cmd. NoMatch makes no robot call and
// returns domain.ErrNoMatch.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) error {
	rotate := d.mag.BaseRotateDeg * (math.Pi / 180)

	var err error
	switch cmd {
	case domain.BaseForward:
		err = d.robot.TranslateBy(ctx, d.mag.BaseTranslateM)
	case domain.BaseBack:
		err = d.robot.TranslateBy(ctx, -d.mag.BaseTranslateM)
	case domain.BaseLeft:
		err = d.robot.RotateBy(ctx, rotate)
	case domain.BaseRight:
		err = d.robot.RotateBy(ctx, -rotate)
	case domain.LiftUp:
		err = d.robot.LiftMoveBy(ctx, d.mag.LiftM)
	case domain.LiftDown:
		err = d.robot.LiftMoveBy(ctx, -d.mag.LiftM)
	case domain.ArmIn:
		err = d.robot.ArmMoveBy(ctx, -d.mag.ArmM)
	case domain.ArmOut:
		err = d.robot.ArmMoveBy(ctx, d.mag.ArmM)
	case domain.HeadAhead:
		err = d.robot.HeadPose(ctx, "ahead")
	case domain.HeadBack:
		err = d.robot.HeadPose(ctx, "back")
	case domain.HeadTool:
		err = d.robot.HeadPose(ctx, "tool")
	case domain.HeadWheels:
		err = d.robot.HeadPose(ctx, "wheels")
	default:
		return domain.ErrNoMatch
	}
	if err != nil {
		return fmt.Errorf("dispatching %s: %w", cmd, err)
	}
	d.log.Info("dispatched %s", cmd)
	return nil
}
