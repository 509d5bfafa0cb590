package robot

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.Robot = (*DryRun)(nil)

// DryRun logs commands instead of moving a robot. Queued commands are
// printed as a batch on PushCommand.
type DryRun struct {
	log *logger.Logger

	mu      sync.Mutex
	pending []string
	batches [][]string
	stopped int
}

// NewDryRun creates a dry-run robot.
func NewDryRun(log *logger.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) queue(ctx context.Context, op string, arg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.pending = append(d.pending, fmt.Sprintf("%s(%v)", op, arg))
	d.mu.Unlock()
	return nil
}

func (d *DryRun) TranslateBy(ctx context.Context, meters float64) error {
	return d.queue(ctx, OpTranslateBy, meters)
}

func (d *DryRun) RotateBy(ctx context.Context, radians float64) error {
	return d.queue(ctx, OpRotateBy, radians)
}

func (d *DryRun) LiftMoveBy(ctx context.Context, meters float64) error {
	return d.queue(ctx, OpLiftMoveBy, meters)
}

func (d *DryRun) ArmMoveBy(ctx context.Context, meters float64) error {
	return d.queue(ctx, OpArmMoveBy, meters)
}

func (d *DryRun) HeadPose(ctx context.Context, name string) error {
	return d.queue(ctx, OpHeadPose, name)
}

// PushCommand commits the pending batch, which may be empty.
func (d *DryRun) PushCommand(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.pending
	d.pending = nil
	d.batches = append(d.batches, batch)
	d.log.Info("dry-run: push %v", batch)
	return nil
}

// Stop drops pending commands.
func (d *DryRun) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	d.stopped++
	d.log.Info("dry-run: stop")
	return nil
}

// Batches returns every pushed batch in order.
func (d *DryRun) Batches() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]string, len(d.batches))
	copy(out, d.batches)
	return out
}
