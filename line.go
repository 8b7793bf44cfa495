package mdio

// Line is the value the master presents on the MDIO data line during one bit
// time. The line is either actively driven to a level or released so the PHY
// may drive it; bus ownership is explicit, there is no "don't care" level.
type Line uint8

const (
	// LineReleased means the master is not driving; the PHY owns the line or
	// the bus pull-up holds it high.
	LineReleased Line = iota
	// LineLow drives the data line low.
	LineLow
	// LineHigh drives the data line high.
	LineHigh
)

// Driving reports whether the master owns the line for this bit time.
func (l Line) Driving() bool { return l != LineReleased }

// Bit returns the driven level. Only meaningful when Driving returns true.
func (l Line) Bit() bool { return l == LineHigh }

func (l Line) String() string {
	switch l {
	case LineReleased:
		return "z"
	case LineLow:
		return "0"
	case LineHigh:
		return "1"
	default:
		return "?"
	}
}

func driveBit(b bool) Line {
	if b {
		return LineHigh
	}
	return LineLow
}

// State is the master's position within a transaction. StateIdle is both the
// initial and terminal state of every transaction.
type State uint8

const (
	// StateIdle: no transaction in flight. Ticks are not consumed; on the
	// physical core the bit clock is gated off here.
	StateIdle State = iota
	// StateStart drives the line low and decides operation validity.
	StateStart
	// StateSendPreamble drives 32 consecutive high bits.
	StateSendPreamble
	// StateSendMessage shifts out ST, OP, PHYADDR, REGADDR, TA and, for
	// writes, DATA, most significant bit first.
	StateSendMessage
	// StateTurnaround releases the line for one bit so the PHY may take
	// ownership ahead of its response.
	StateTurnaround
	// StateReadResponse samples 16 PHY-driven bits into the result register.
	StateReadResponse
	// StateStop releases the line and clears transient counters.
	StateStop
	// StateError holds after an invalid request until reset or a fresh Start.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStart:
		return "Start"
	case StateSendPreamble:
		return "SendPreamble"
	case StateSendMessage:
		return "SendMessage"
	case StateTurnaround:
		return "TurnaroundWait"
	case StateReadResponse:
		return "ReadResponse"
	case StateStop:
		return "Stop"
	case StateError:
		return "Error"
	default:
		return "State?"
	}
}
