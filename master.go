package mdio

import "log/slog"

// Master is the MDIO bus-master state machine. It is the sole initiator on
// the bus: the PHY drives the data line only during the turnaround and read
// response window of a read-class transaction.
//
// Master performs no I/O and keeps no notion of time. The caller delivers
// one bit-clock tick per call to [Master.Tick] and is responsible for
// translating the returned [Line] value to the physical pin; [BitBang] does
// exactly that. While idle no ticks are consumed, which preserves the
// power-saving clock gate of the physical core as "the tick source is simply
// not pumped".
//
// The zero value is an idle master ready for use.
type Master struct {
	rq     Request
	msg    uint32 // driven frame bits, MSB-aligned shift register
	data   uint16 // read accumulator and result register
	state  State
	count  uint8 // per-state bit counter
	nmsg   uint8 // driven frame bits this transaction
	taHigh bool
	err    error
	logger
}

// Start captures rq and arms the master, equivalent to asserting the enable
// input. It fails with ErrBusy while a transaction is in flight and with
// ErrBadAddr when an address field exceeds its 5 bits. Operation validity is
// decided by the first tick, in StateStart; an invalid combination parks the
// master in StateError with Err returning ErrInvalidOp.
//
// Start is permitted from StateError: submitting a corrected request models
// the caller deasserting enable and re-enabling with new inputs.
func (m *Master) Start(rq Request) error {
	if m.state != StateIdle && m.state != StateError {
		return ErrBusy
	}
	if rq.PhyAddr > addrMax || rq.RegAddr > addrMax {
		return ErrBadAddr
	}
	m.rq = rq
	m.err = nil
	m.count = 0
	m.taHigh = false
	m.state = StateStart
	m.trace("mdio:start",
		slog.String("clause", rq.Clause.String()),
		slog.String("op", rq.Op.String()),
		slog.Uint64("phy", uint64(rq.PhyAddr)),
		slog.Uint64("reg", uint64(rq.RegAddr)),
	)
	return nil
}

// Busy reports whether a transaction is in flight. A master in StateError is
// not busy; it is waiting for the caller to reset or resubmit.
func (m *Master) Busy() bool {
	return m.state != StateIdle && m.state != StateError
}

// Sampling reports whether the PHY owns the line for the upcoming tick, i.e.
// the caller should sample the pin and pass the level to Tick rather than
// drive Tick's result onto it.
func (m *Master) Sampling() bool {
	return m.state == StateTurnaround || m.state == StateReadResponse
}

// State returns the current state of the transaction state machine.
func (m *Master) State() State { return m.state }

// Err returns ErrInvalidOp while the master is parked in StateError and nil
// otherwise.
func (m *Master) Err() error { return m.err }

// ReadData returns the result register. It is valid once a read-class
// transaction has run to completion; at any other moment it holds the stale
// previous value.
func (m *Master) ReadData() uint16 { return m.data }

// TurnaroundHigh reports the line level sampled during the turnaround bit of
// the last read-class transaction. A responding PHY drives it low; a high
// level means no PHY answered.
func (m *Master) TurnaroundHigh() bool { return m.taHigh }

// Reset is the asynchronous reset input: it returns the master to StateIdle
// immediately, clearing counters, the pending request and the result
// register. It is the only way to abort a transaction mid-frame.
func (m *Master) Reset() {
	if m.state != StateIdle {
		m.trace("mdio:reset", slog.String("state", m.state.String()))
	}
	*m = Master{logger: m.logger}
}

// SetLogger sets the logger used for transaction tracing.
func (m *Master) SetLogger(l *slog.Logger) { m.logger = logger{log: l} }

// Tick advances the state machine by one bit-clock period and returns the
// value the master presents on the data line for that period. in is the
// level sampled on the line during the tick and is only inspected while the
// master is listening (see [Master.Sampling]); pass false otherwise.
//
// A tick delivered in StateIdle or StateError is not consumed: the line
// stays released and no state changes.
func (m *Master) Tick(in bool) Line {
	switch m.state {
	case StateStart:
		// Known low starting level while validity is decided.
		if !m.rq.Op.validFor(m.rq.Clause) {
			m.err = ErrInvalidOp
			m.state = StateError
			m.logerr("mdio:invalid-op",
				slog.String("clause", m.rq.Clause.String()),
				slog.String("op", m.rq.Op.String()),
			)
			return LineLow
		}
		m.msg, m.nmsg = m.rq.message()
		m.count = 0
		m.state = StateSendPreamble
		return LineLow

	case StateSendPreamble:
		m.count++
		if m.count == preambleBits {
			m.count = 0
			m.state = StateSendMessage
			m.traceState("mdio:preamble-done")
		}
		return LineHigh

	case StateSendMessage:
		bit := m.msg&(1<<31) != 0
		m.msg <<= 1
		m.count++
		if m.count == m.nmsg {
			m.count = 0
			if m.rq.Op.readClass() {
				m.state = StateTurnaround
			} else {
				m.state = StateStop
			}
			m.traceState("mdio:message-done")
		}
		return driveBit(bit)

	case StateTurnaround:
		// Ownership passes to the PHY, which drives this bit low.
		m.taHigh = in
		m.data = 0
		m.state = StateReadResponse
		return LineReleased

	case StateReadResponse:
		m.data <<= 1
		if in {
			m.data |= 1
		}
		m.count++
		if m.count == dataBits {
			m.count = 0
			m.state = StateStop
			m.trace("mdio:read-done", slog.Uint64("data", uint64(m.data)))
		}
		return LineReleased

	case StateStop:
		m.count = 0
		m.state = StateIdle
		return LineReleased
	}
	// StateIdle, StateError: tick not consumed.
	return LineReleased
}
