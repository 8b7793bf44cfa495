package mdio

import "log/slog"

// MDIOBus is a HAL for MDIO bus access supporting both Clause 22 and
// Clause 45 devices. Implementations use devAddr to select the framing:
//   - devAddr=0: Clause 22 framing (devAddr ignored in transaction)
//   - devAddr>=1: Clause 45 framing (PMA/PMD=1, WIS=2, PCS=3, PHY XS=4,
//     DTE XS=5, AN=7)
type MDIOBus interface {
	// Read reads a 16-bit register from the PHY.
	Read(phyAddr, devAddr uint8, regAddr uint16) (value uint16, err error)
	// Write writes a 16-bit value to a PHY register.
	Write(phyAddr, devAddr uint8, regAddr, value uint16) error
}

var _ MDIOBus = (*BitBang)(nil) // compile time guarantee of interface implementation.

// BitBang provides blocking [MDIOBus] access by pumping a [Master] through a
// single pin-cycle callback. The callback performs one full MDC period:
// present out on the MDIO pin (or release the pin when out is LineReleased),
// drive MDC high then low with the required setup time, and return the MDIO
// level sampled while MDC was high. MDC is therefore only toggled while a
// transaction is in flight, matching the gated bit clock of the core.
//
// A TinyGo-oriented callback looks like:
//
//	bb.Configure(func(out mdio.Line) bool {
//		if out.Driving() {
//			pinMDIO.Configure(machine.PinConfig{Mode: machine.PinOutput})
//			pinMDIO.Set(out.Bit())
//		} else {
//			pinMDIO.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
//		}
//		time.Sleep(mdioDelay) // half bit period, 200ns at 2.5MHz
//		pinMDC.High()
//		sampled := pinMDIO.Get()
//		time.Sleep(mdioDelay)
//		pinMDC.Low()
//		return sampled
//	})
type BitBang struct {
	master Master
	cycle  func(out Line) (in bool)
}

// Configure initializes the bit-bang interface with the pin-cycle callback.
func (bb *BitBang) Configure(cycle func(out Line) (in bool)) {
	if cycle == nil {
		panic("nil callback")
	}
	bb.cycle = cycle
	bb.master.Reset()
}

// SetLogger sets the logger used by the underlying master.
func (bb *BitBang) SetLogger(l *slog.Logger) { bb.master.SetLogger(l) }

// Read reads a PHY register. Uses Clause 45 framing if devAddr is non-zero,
// issuing an address transaction to select the MMD before the read proper.
func (bb *BitBang) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	if devAddr == 0 && regAddr > addrMax {
		return 0, ErrBadAddr
	}
	var err error
	if devAddr != 0 {
		err = bb.run(Request{
			Clause:  Clause45,
			Op:      OpAddress,
			PhyAddr: phyAddr,
			RegAddr: uint8(regAddr) & addrMax,
			MMD:     uint16(devAddr),
		})
		if err != nil {
			return 0, err
		}
		err = bb.run(Request{
			Clause:  Clause45,
			Op:      OpRead,
			PhyAddr: phyAddr,
			RegAddr: uint8(regAddr) & addrMax,
			MMD:     uint16(devAddr),
		})
	} else {
		err = bb.run(Request{
			Clause:  Clause22,
			Op:      OpRead,
			PhyAddr: phyAddr,
			RegAddr: uint8(regAddr),
		})
	}
	if err != nil {
		return 0, err
	}
	if bb.master.TurnaroundHigh() {
		// No PHY took the line. The response window still ran to completion
		// so the bus is already idle; no flush needed before the next frame.
		return 0xffff, errTurnaround
	}
	return bb.master.ReadData(), nil
}

// Write writes a value to a PHY register. Uses Clause 45 framing if devAddr
// is non-zero, issuing an address transaction to select the MMD first.
func (bb *BitBang) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	if devAddr == 0 && regAddr > addrMax {
		return ErrBadAddr
	}
	if devAddr != 0 {
		err := bb.run(Request{
			Clause:  Clause45,
			Op:      OpAddress,
			PhyAddr: phyAddr,
			RegAddr: uint8(regAddr) & addrMax,
			MMD:     uint16(devAddr),
		})
		if err != nil {
			return err
		}
		return bb.run(Request{
			Clause:  Clause45,
			Op:      OpWrite,
			PhyAddr: phyAddr,
			RegAddr: uint8(regAddr) & addrMax,
			MMD:     uint16(devAddr),
			Data:    value,
		})
	}
	return bb.run(Request{
		Clause:  Clause22,
		Op:      OpWrite,
		PhyAddr: phyAddr,
		RegAddr: uint8(regAddr),
		Data:    value,
	})
}

// run drives one complete transaction through the master. Driven ticks
// compute the line value first and then perform the pin cycle; listening
// ticks perform the cycle with the line released and feed the sampled level
// back, which is the output-then-sample order of the physical core.
//
// TODO: carry the 16-bit Clause 45 register address in the address frame's
// data phase so registers above 31 become reachable.
func (bb *BitBang) run(rq Request) error {
	if err := bb.master.Start(rq); err != nil {
		return err
	}
	for bb.master.Busy() {
		if bb.master.Sampling() {
			bb.master.Tick(bb.cycle(LineReleased))
		} else {
			bb.cycle(bb.master.Tick(false))
		}
	}
	return bb.master.Err()
}
