// Package mdtest provides a software model of an MDIO-managed PHY used to
// exercise the bus master bit by bit. The model decodes the master's frames
// from the raw line cycles, records writes into a 32-entry register file and
// drives the turnaround and data bits of read responses, so tests observe
// the master exactly the way a slave device on the bus would.
package mdtest

import "github.com/soypat/mdio"

type slaveState uint8

const (
	statePreamble slaveState = iota
	stateHeader
	stateReadTA  // consume the master-driven turnaround bit of a read frame
	stateDriveTA // drive turnaround low, prepare response shifter
	stateDriveData
	stateWriteTA
	stateWriteData
	stateSkip // frame addressed to another PHY; wait it out
)

// Slave models a single PHY on the bus.
type Slave struct {
	// Regs is the register file served on reads and updated by writes.
	Regs [32]uint16
	// PhyAddr is the address the model answers to. Frames addressed
	// elsewhere are decoded but neither answered nor stored.
	PhyAddr uint8
	// Pointer is the Clause 45 address pointer served by read-post-increment
	// frames and bumped after each one.
	Pointer uint8
	// Devsel is the device selector latched by the last address frame.
	Devsel uint8
	// Frames counts correctly framed transactions seen on the bus.
	Frames int
	// BadFrames counts protocol violations: unknown ST/OP pairing or a
	// turnaround not driven 1,0 by the master.
	BadFrames int

	// Last decoded header fields, for test assertions.
	LastST  uint8
	LastOp  uint8
	LastPhy uint8
	LastReg uint8

	state   slaveState
	ones    int    // consecutive high bits while hunting the preamble
	hdr     uint16 // header shift register
	shift   uint16 // read response / write data shifter
	count   int
	match   bool
	readInc bool
	wrReg   uint8
}

// Cycle consumes one bit time. out is the level the master presents on the
// line (or LineReleased while it is listening) and the return value is the
// level the master samples back: the slave's driven bit during a read
// response, the master's own level while it drives, and pull-up high when
// nobody owns the line.
func (s *Slave) Cycle(out mdio.Line) (in bool) {
	if s.state == stateDriveTA {
		s.shift = s.Regs[s.respReg()]
		s.state = stateDriveData
		s.count = 0
		return false // turnaround driven low by the PHY
	}
	if s.state == stateDriveData {
		bit := s.shift&0x8000 != 0
		s.shift <<= 1
		s.count++
		if s.count == 16 {
			s.finishFrame()
		}
		return bit
	}

	// Line owned by the master (or floating high through the pull-up).
	level := true
	if out.Driving() {
		level = out.Bit()
	}
	s.decode(level)
	return level
}

// respReg picks the register served by the current read frame and advances
// the pointer on read-post-increment.
func (s *Slave) respReg() uint8 {
	if s.readInc {
		reg := s.Pointer & 31
		s.Pointer = (s.Pointer + 1) & 31
		return reg
	}
	return s.LastReg
}

func (s *Slave) finishFrame() {
	s.Frames++
	s.state = statePreamble
	s.ones = 0
}

func (s *Slave) violation() {
	s.BadFrames++
	s.state = statePreamble
	s.ones = 0
}

func (s *Slave) decode(level bool) {
	switch s.state {
	case statePreamble:
		if level {
			s.ones++
			return
		}
		if s.ones >= 32 {
			// First header bit: the ST field starts with 0 in both clauses.
			s.hdr = 0
			s.count = 1
			s.state = stateHeader
		}
		s.ones = 0

	case stateHeader:
		s.hdr <<= 1
		if level {
			s.hdr |= 1
		}
		s.count++
		if s.count < 14 {
			return
		}
		s.LastST = uint8(s.hdr>>12) & 0b11
		s.LastOp = uint8(s.hdr>>10) & 0b11
		s.LastPhy = uint8(s.hdr>>5) & 31
		s.LastReg = uint8(s.hdr) & 31
		s.match = s.LastPhy == s.PhyAddr
		s.dispatch()

	case stateReadTA:
		if !level {
			s.violation()
			return
		}
		if s.match {
			s.state = stateDriveTA
		} else {
			s.state = stateSkip
			s.count = 17 // released turnaround plus 16 data bits
		}

	case stateWriteTA:
		if s.count == 0 && !level {
			s.violation()
			return
		}
		if s.count == 1 && level {
			s.violation()
			return
		}
		s.count++
		if s.count < 2 {
			return
		}
		if s.LastST == 0b00 && s.LastOp == 0b00 {
			// Address frame ends at the turnaround.
			if s.match {
				s.Devsel = s.LastReg
			}
			s.finishFrame()
			return
		}
		s.shift = 0
		s.count = 0
		s.state = stateWriteData
		s.wrReg = s.LastReg

	case stateWriteData:
		s.shift <<= 1
		if level {
			s.shift |= 1
		}
		s.count++
		if s.count == 16 {
			if s.match {
				s.Regs[s.wrReg&31] = s.shift
			}
			s.finishFrame()
		}

	case stateSkip:
		s.count--
		if s.count <= 0 {
			s.finishFrame()
		}
	}
}

// dispatch routes a parsed header to the matching frame phase.
func (s *Slave) dispatch() {
	s.count = 0
	s.readInc = false
	switch {
	case s.LastST == 0b01 && s.LastOp == 0b10, // Clause 22 read
		s.LastST == 0b00 && s.LastOp == 0b11: // Clause 45 read
		s.state = stateReadTA
	case s.LastST == 0b00 && s.LastOp == 0b10: // Clause 45 read-inc
		s.readInc = true
		s.state = stateReadTA
	case s.LastST == 0b01 && s.LastOp == 0b01, // Clause 22 write
		s.LastST == 0b00 && s.LastOp == 0b01, // Clause 45 write
		s.LastST == 0b00 && s.LastOp == 0b00: // Clause 45 address
		s.state = stateWriteTA
	default:
		s.violation()
	}
}
