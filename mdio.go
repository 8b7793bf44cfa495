// Package mdio implements a bus-master for the MDIO/MDC management interface
// used to access configuration and status registers of Ethernet PHYs
// (physical layer transceivers). Both IEEE 802.3 Clause 22 and Clause 45
// framings are supported, selectable per transaction.
//
// The heart of the package is [Master], a state machine that advances one
// bus-line bit per call to [Master.Tick] and decides at every tick whether
// the data line is driven low, driven high or released to the PHY. [BitBang]
// wraps a Master with a pin-cycle callback to provide the blocking
// [MDIOBus] interface consumed by higher layers such as package mii.
package mdio

import (
	"errors"
	"math/bits"
)

var (
	// ErrInvalidOp is reported after a request whose operation flags are not
	// exactly-one-hot for the selected clause. The master freezes in
	// StateError until reset or a corrected request is started.
	ErrInvalidOp = errors.New("invalid operation for selected clause")
	// ErrBusy is returned by Start while a transaction is in flight.
	ErrBusy = errors.New("mdio transaction in progress")
	// ErrBadAddr is returned by Start when a 5-bit address field exceeds 31.
	ErrBadAddr = errors.New("address exceeds 5-bit range")

	errTurnaround = errors.New("PHY did not drive turnaround low")
)

// Clause selects the MDIO frame variant of a transaction.
type Clause uint8

const (
	// Clause22 is the legacy framing: 5-bit register space, read/write only.
	Clause22 Clause = iota
	// Clause45 is the extended framing with device (MMD) addressing and
	// address/read-post-increment operations.
	Clause45
)

// st returns the 2-bit start-of-frame field for the clause.
func (c Clause) st() uint8 {
	if c == Clause22 {
		return 0b01
	}
	return 0b00
}

func (c Clause) String() string {
	switch c {
	case Clause22:
		return "Clause22"
	case Clause45:
		return "Clause45"
	default:
		return "Clause?"
	}
}

// Op is the set of requested operation flags. A valid request asserts exactly
// one flag; asserting several or none routes the master to StateError, same
// as contradictory operation wires would on the physical core.
type Op uint8

const (
	// OpWrite writes 16 bits to a register. Valid under both clauses.
	OpWrite Op = 1 << iota
	// OpRead reads 16 bits from a register. Valid under both clauses.
	OpRead
	// OpAddress latches a device/address selection. Clause 45 only.
	OpAddress
	// OpReadInc reads and post-increments the PHY's address pointer.
	// Clause 45 only.
	OpReadInc

	opMask = OpWrite | OpRead | OpAddress | OpReadInc
)

// validFor reports whether op is exactly one operation permitted by c.
func (op Op) validFor(c Clause) bool {
	if bits.OnesCount8(uint8(op)) != 1 || op&^opMask != 0 {
		return false
	}
	if c == Clause22 {
		return op == OpWrite || op == OpRead
	}
	return true
}

// readClass reports whether the operation samples a 16-bit response from the
// PHY after a turnaround.
func (op Op) readClass() bool { return op&(OpRead|OpReadInc) != 0 }

func (op Op) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpAddress:
		return "address"
	case OpReadInc:
		return "read-inc"
	case 0:
		return "none"
	default:
		return "multiple"
	}
}

// opcode returns the 2-bit OP frame field for the clause/operation pair.
// Returns ok=false for combinations that fail the one-hot clause rule.
func opcode(c Clause, op Op) (code uint8, ok bool) {
	if !op.validFor(c) {
		return 0, false
	}
	if c == Clause22 {
		switch op {
		case OpWrite:
			return 0b01, true
		case OpRead:
			return 0b10, true
		}
		return 0, false
	}
	switch op {
	case OpAddress:
		return 0b00, true
	case OpWrite:
		return 0b01, true
	case OpReadInc:
		return 0b10, true
	case OpRead:
		return 0b11, true
	}
	return 0, false
}

// Frame geometry. Every frame is preceded by 32 high preamble bits and
// carries ST(2) OP(2) PHYADDR(5) REGADDR(5) TA(2) [DATA(16)], MSB first.
const (
	preambleBits = 32
	headerBits   = 2 + 2 + 5 + 5 // ST, OP, PHYADDR, REGADDR
	dataBits     = 16

	addrMax  = 1<<5 - 1
	taDriven = 0b10 // turnaround as driven by the master on write/address
)

// Request describes one MDIO transaction. It is captured by the master when
// the transaction starts and may not be changed mid-frame; a started
// transaction runs to completion or is cut short only by Reset.
type Request struct {
	// Clause selects Clause 22 or Clause 45 framing.
	Clause Clause
	// Op holds the operation flags. Exactly one must be set.
	Op Op
	// PhyAddr is the 5-bit address of the target PHY.
	PhyAddr uint8
	// RegAddr is the 5-bit register number (Clause 22) or the low bits of
	// the extended register address (Clause 45).
	RegAddr uint8
	// MMD selects the Clause 45 device (MMD); its low 5 bits occupy the
	// frame slot after PHYADDR. Ignored under Clause 22.
	MMD uint16
	// Data is the value driven during the data phase. Only OpWrite drives
	// data; the field is ignored for every other operation.
	Data uint16
}

// regField returns the 5-bit frame slot following PHYADDR: the register
// number under Clause 22, the device selector under Clause 45.
func (rq *Request) regField() uint8 {
	if rq.Clause == Clause45 {
		return uint8(rq.MMD) & addrMax
	}
	return rq.RegAddr & addrMax
}

// message builds the driven portion of the frame after the preamble as an
// MSB-aligned shift register along with its bit count.
//   - Write: header + TA(10) + data, 32 bits.
//   - Address: header + TA(10), 16 bits. No data phase.
//   - Read class: header + TA bit 1 high, 15 bits. TA bit 0 is released to
//     the PHY and handled by the turnaround state.
func (rq *Request) message() (msg uint32, nbits uint8) {
	code, _ := opcode(rq.Clause, rq.Op)
	hdr := uint32(rq.Clause.st())<<12 |
		uint32(code)<<10 |
		uint32(rq.PhyAddr&addrMax)<<5 |
		uint32(rq.regField())
	switch {
	case rq.Op == OpWrite:
		return hdr<<18 | taDriven<<16 | uint32(rq.Data), headerBits + 2 + dataBits
	case rq.Op == OpAddress:
		return (hdr<<2 | taDriven) << 16, headerBits + 2
	default: // Read class drives only the first turnaround bit.
		return (hdr<<1 | 1) << 17, headerBits + 1
	}
}
