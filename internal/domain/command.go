package domain

// Command is one of the fixed robot actions a transcript can map to.
type Command int

const (
	NoMatch Command = iota
	BaseForward
	BaseBack
	BaseLeft
	BaseRight
	LiftUp
	LiftDown
	ArmIn
	ArmOut
	HeadAhead
	HeadBack
	HeadTool
	HeadWheels
)

// Category groups commands by the joint they drive. Categories are
// matched in declaration order.
type Category int

const (
	CategoryNone Category = iota
	CategoryBase
	CategoryLift
	CategoryArm
	CategoryHead
)

// String returns a human-readable command name.
func (c Command) String() string {
	switch c {
	case BaseForward:
		return "base_forward"
	case BaseBack:
		return "base_back"
	case BaseLeft:
		return "base_left"
	case BaseRight:
		return "base_right"
	case LiftUp:
		return "lift_up"
	case LiftDown:
		return "lift_down"
	case ArmIn:
		return "arm_in"
	case ArmOut:
		return "arm_out"
	case HeadAhead:
		return "head_ahead"
	case HeadBack:
		return "head_back"
	case HeadTool:
		return "head_tool"
	case HeadWheels:
		return "head_wheels"
	default:
		return "no_match"
	}
}

// Category returns the joint group the command belongs to.
func (c Command) Category() Category {
	switch c {
	case BaseForward, BaseBack, BaseLeft, BaseRight:
		return CategoryBase
	case LiftUp, LiftDown:
		return CategoryLift
	case ArmIn, ArmOut:
		return CategoryArm
	case HeadAhead, HeadBack, HeadTool, HeadWheels:
		return CategoryHead
	default:
		return CategoryNone
	}
}

func (c Category) String() string {
	switch c {
	case CategoryBase:
		return "base"
	case CategoryLift:
		return "lift"
	case CategoryArm:
		return "arm"
	case CategoryHead:
		return "head"
	default:
		return "none"
	}
}
