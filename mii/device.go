// Package mii provides management access to the standard registers of
// Ethernet PHYs over an [mdio.MDIOBus]: control, status, identification and
// auto-negotiation. It is the usual consumer of the bus master in package
// mdio but works with any MDIOBus implementation.
package mii

import (
	"errors"
	"time"

	"github.com/soypat/mdio"
)

var (
	errBadPhyAddr  = errors.New("PHY address exceeds 31")
	errNilBus      = errors.New("nil MDIO bus")
	errShortBuf    = errors.New("destination shorter than 32")
	errNoPHY       = errors.New("no PHY found")
	errResetStuck  = errors.New("PHY reset timeout")
	errANUnchanged = errors.New("unable to set auto-negotiation enable bit")
	errANPending   = errors.New("auto-negotiation not complete")
	errBadLinkMode = errors.New("unsupported forced link mode")
	errIsolated    = errors.New("PHY isolated from MII")
	errPoweredDown = errors.New("PHY powered down")
)

// Device represents one PHY on an MDIO bus, addressed with Clause 22 framing.
type Device struct {
	bus     mdio.MDIOBus
	phyaddr uint8
}

// Configure points the device at a PHY address on the given bus. It performs
// no bus access and may be called again to retarget the device.
func (d *Device) Configure(bus mdio.MDIOBus, phyAddr uint8) error {
	if phyAddr > 31 {
		return errBadPhyAddr
	} else if bus == nil {
		return errNilBus
	}
	d.bus = bus
	d.phyaddr = phyAddr
	return nil
}

// PHYAddr returns the PHY address on the MDIO bus (0-31).
func (d *Device) PHYAddr() uint8 { return d.phyaddr }

// BasicControl reads the Basic Mode Control Register (BMCR, register 0).
func (d *Device) BasicControl() (BMCR, error) {
	v, err := d.read(AddrBMCR)
	return BMCR(v), err
}

// BasicStatus reads the Basic Mode Status Register (BMSR, register 1).
func (d *Device) BasicStatus() (BMSR, error) {
	v, err := d.read(AddrBMSR)
	return BMSR(v), err
}

// ID1 reads PHY Identifier register 1 containing bits 3-18 of the OUI.
func (d *Device) ID1() (uint16, error) { return d.read(AddrID1) }

// ID2 reads PHY Identifier register 2 with the remaining OUI bits plus the
// model number and revision.
func (d *Device) ID2() (uint16, error) { return d.read(AddrID2) }

// IsLinkUp returns true if link is established.
func (d *Device) IsLinkUp() (bool, error) {
	status, err := d.BasicStatus()
	if err != nil {
		return false, err
	}
	return status.LinkUp(), nil
}

// ResetPHY performs a software reset and polls until the self-clearing reset
// bit drops. IEEE 802.3 allows the reset up to 500ms.
func (d *Device) ResetPHY() (err error) {
	err = d.write(AddrBMCR, uint16(BMCRReset))
	if err != nil {
		return err
	}
	const maxPolls = 50
	const resetTimeout = 500 * time.Millisecond
	var ctl BMCR
	for i := 0; i < maxPolls; i++ {
		time.Sleep(resetTimeout / maxPolls)
		ctl, err = d.BasicControl()
		if err != nil {
			continue
		}
		if ctl&BMCRReset == 0 {
			return nil
		}
	}
	if err != nil {
		return err
	}
	return errResetStuck
}

// EnableAutoNegotiation enables or disables auto-negotiation and verifies
// the change took effect.
func (d *Device) EnableAutoNegotiation(b bool) error {
	ctl, err := d.BasicControl()
	if err != nil {
		return err
	}
	if b {
		ctl |= BMCRANEnable
	} else {
		ctl &^= BMCRANEnable
	}
	err = d.write(AddrBMCR, uint16(ctl))
	if err != nil {
		return err
	}
	ctl, err = d.BasicControl()
	if err != nil {
		return err
	}
	if (ctl&BMCRANEnable != 0) != b {
		return errANUnchanged
	}
	return nil
}

// RestartAutoNeg enables auto-negotiation and restarts it.
func (d *Device) RestartAutoNeg() error {
	ctl, err := d.BasicControl()
	if err != nil {
		return err
	}
	ctl |= BMCRANEnable | BMCRANRestart
	return d.write(AddrBMCR, uint16(ctl))
}

// SetupForced disables auto-negotiation and forces a specific speed and
// duplex. The link comes up only against a partner configured the same way.
func (d *Device) SetupForced(mode LinkMode) error {
	var ctl BMCR
	switch mode.SpeedMbps() {
	case 1000:
		ctl |= BMCRSpeed1000
	case 100:
		ctl |= BMCRSpeed100
	case 10:
		// Speed bits clear select 10Mbps.
	default:
		return errBadLinkMode
	}
	if mode.IsFullDuplex() {
		ctl |= BMCRFullDuplex
	}
	// BMCRANEnable stays clear, disabling auto-negotiation.
	return d.write(AddrBMCR, uint16(ctl))
}

// WaitForLinkWithDeadline polls link status until the deadline. When
// auto-negotiation is enabled it waits for negotiation to complete before
// checking link. Returns true if link is up, false once the deadline passes.
//
// BMSR link status is latched low, so an initial throwaway read clears any
// previous fault before fresh status is polled.
func (d *Device) WaitForLinkWithDeadline(deadline time.Time) (bool, error) {
	const pollInterval = 50 * time.Millisecond
	ctl, err := d.BasicControl()
	if err != nil {
		return false, err
	} else if ctl&BMCRIsolate != 0 {
		return false, errIsolated
	} else if ctl&BMCRPowerDown != 0 {
		return false, errPoweredDown
	}
	_, _ = d.BasicStatus() // clear latched-low bits
	anEnabled := ctl&BMCRANEnable != 0
	for time.Now().Before(deadline) {
		status, err := d.BasicStatus()
		if err != nil {
			return false, err
		}
		if anEnabled && !status.AutoNegotiationComplete() {
			time.Sleep(pollInterval)
			continue
		}
		if status.LinkUp() {
			return true, nil
		}
		time.Sleep(pollInterval)
	}
	status, err := d.BasicStatus()
	if err != nil {
		return false, err
	}
	return status.LinkUp(), nil
}

// Advertisement reads the current Auto-Negotiation Advertisement Register.
func (d *Device) Advertisement() (ANAR, error) {
	v, err := d.read(AddrANAR)
	return ANAR(v), err
}

// SetAdvertisement writes the Auto-Negotiation Advertisement Register. It
// does not restart auto-negotiation; call RestartAutoNeg after if needed.
func (d *Device) SetAdvertisement(ad ANAR) error {
	return d.write(AddrANAR, uint16(ad))
}

// LinkPartnerAdvertisement reads what the link partner advertises (ANLPAR).
func (d *Device) LinkPartnerAdvertisement() (ANAR, error) {
	v, err := d.read(AddrANLPAR)
	return ANAR(v), err
}

// NegotiatedLink resolves the auto-negotiated link mode from the common
// capabilities of both ends, by the priority of IEEE 802.3 Annex 28B.3.
func (d *Device) NegotiatedLink() (LinkMode, error) {
	status, err := d.BasicStatus()
	if err != nil {
		return LinkDown, err
	}
	if !status.AutoNegotiationComplete() {
		return LinkDown, errANPending
	}
	anar, err := d.Advertisement()
	if err != nil {
		return LinkDown, err
	}
	anlpar, err := d.LinkPartnerAdvertisement()
	if err != nil {
		return LinkDown, err
	}
	return (anar & anlpar).LinkMode(), nil
}

// SetLoopback enables or disables PHY near-end loopback (BMCR bit 14). In
// loopback mode transmit data is routed back to receive inside the PHY.
func (d *Device) SetLoopback(enable bool) error {
	ctl, err := d.BasicControl()
	if err != nil {
		return err
	}
	if enable {
		ctl |= BMCRLoopback
	} else {
		ctl &^= BMCRLoopback
	}
	return d.write(AddrBMCR, uint16(ctl))
}

func (d *Device) read(reg uint16) (uint16, error) {
	return d.bus.Read(d.phyaddr, 0, reg)
}

func (d *Device) write(reg, value uint16) error {
	return d.bus.Write(d.phyaddr, 0, reg, value)
}

// FindClause22PHYs scans all 32 bus addresses and writes those answering
// with a plausible basic status to dst, returning how many were found. dst
// must hold at least 32 entries. Returns an error only when no PHY answers.
func FindClause22PHYs(bus mdio.MDIOBus, dst []uint8) (n int, err error) {
	const maxAddr = 31
	if len(dst) < 32 {
		return -1, errShortBuf
	}
	for addr := uint8(0); addr <= maxAddr; addr++ {
		val, err := bus.Read(addr, 0, AddrBMSR)
		if err != nil {
			continue
		}
		// BMSR mixes must-be-zero and usually-one bits; all-ones or
		// all-zeros means nothing answered at this address.
		if val != 0xffff && val != 0x0000 {
			dst[n] = addr
			n++
		}
		time.Sleep(150 * time.Microsecond)
	}
	if n <= 0 {
		err = errNoPHY
	}
	return n, err
}
