package mii_test

import (
	"errors"
	"testing"
	"time"

	"github.com/soypat/mdio"
	"github.com/soypat/mdio/internal/mdtest"
	"github.com/soypat/mdio/mii"
)

// memBus is a register-file MDIOBus with a self-clearing BMCR reset bit,
// enough behavior to exercise Device without a bus master underneath.
type memBus struct {
	regs    [32][32]uint16
	present [32]bool
}

func (b *memBus) Read(phy, dev uint8, reg uint16) (uint16, error) {
	if !b.present[phy&31] {
		return 0xffff, errors.New("no such PHY")
	}
	return b.regs[phy&31][reg&31], nil
}

func (b *memBus) Write(phy, dev uint8, reg, value uint16) error {
	if !b.present[phy&31] {
		return errors.New("no such PHY")
	}
	if reg == mii.AddrBMCR {
		value &^= uint16(mii.BMCRReset) // reset completes instantly
	}
	b.regs[phy&31][reg&31] = value
	return nil
}

func TestDeviceBasicOps(t *testing.T) {
	bus := &memBus{}
	bus.present[7] = true
	bus.regs[7][mii.AddrBMSR] = uint16(mii.BMSRLinkStatus | mii.BMSRANComplete | mii.BMSRANCap)
	bus.regs[7][mii.AddrID1] = 0x0022
	bus.regs[7][mii.AddrID2] = 0x1561

	var d mii.Device
	if err := d.Configure(bus, 7); err != nil {
		t.Fatal(err)
	}
	if err := d.Configure(bus, 32); err == nil {
		t.Error("expected error configuring PHY address 32")
	}

	up, err := d.IsLinkUp()
	if err != nil {
		t.Fatal(err)
	} else if !up {
		t.Error("link reported down")
	}
	id1, err := d.ID1()
	if err != nil || id1 != 0x0022 {
		t.Errorf("ID1 = %#04x, %v", id1, err)
	}
	id2, err := d.ID2()
	if err != nil || id2 != 0x1561 {
		t.Errorf("ID2 = %#04x, %v", id2, err)
	}

	if err := d.SetLoopback(true); err != nil {
		t.Fatal(err)
	}
	ctl, _ := d.BasicControl()
	if ctl&mii.BMCRLoopback == 0 {
		t.Error("loopback bit not set")
	}
	if err := d.SetLoopback(false); err != nil {
		t.Fatal(err)
	}
	ctl, _ = d.BasicControl()
	if ctl&mii.BMCRLoopback != 0 {
		t.Error("loopback bit not cleared")
	}

	if err := d.EnableAutoNegotiation(true); err != nil {
		t.Fatal(err)
	}
	if err := d.RestartAutoNeg(); err != nil {
		t.Fatal(err)
	}
	ctl, _ = d.BasicControl()
	if ctl&(mii.BMCRANEnable|mii.BMCRANRestart) != mii.BMCRANEnable|mii.BMCRANRestart {
		t.Errorf("BMCR = %#04x after restart", uint16(ctl))
	}
	if err := d.ResetPHY(); err != nil {
		t.Fatal(err)
	}
}

func TestDeviceSetupForced(t *testing.T) {
	bus := &memBus{}
	bus.present[4] = true
	var d mii.Device
	if err := d.Configure(bus, 4); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		mode mii.LinkMode
		want mii.BMCR
	}{
		{mii.Link10HDX, 0},
		{mii.Link10FDX, mii.BMCRFullDuplex},
		{mii.Link100HDX, mii.BMCRSpeed100},
		{mii.Link100FDX, mii.BMCRSpeed100 | mii.BMCRFullDuplex},
		{mii.Link1000FDX, mii.BMCRSpeed1000 | mii.BMCRFullDuplex},
	}
	for _, tc := range cases {
		if err := d.SetupForced(tc.mode); err != nil {
			t.Fatalf("%s: %v", tc.mode, err)
		}
		ctl, err := d.BasicControl()
		if err != nil {
			t.Fatal(err)
		}
		if ctl != tc.want {
			t.Errorf("%s: BMCR = %#04x, want %#04x", tc.mode, uint16(ctl), uint16(tc.want))
		}
		if ctl&mii.BMCRANEnable != 0 {
			t.Errorf("%s: auto-negotiation left enabled", tc.mode)
		}
	}
	if err := d.SetupForced(mii.LinkDown); err == nil {
		t.Error("expected error forcing LinkDown")
	}
}

func TestDeviceWaitForLink(t *testing.T) {
	bus := &memBus{}
	bus.present[4] = true
	var d mii.Device
	if err := d.Configure(bus, 4); err != nil {
		t.Fatal(err)
	}

	// Link down and deadline already passed: no link, no error.
	up, err := d.WaitForLinkWithDeadline(time.Now().Add(-time.Second))
	if err != nil {
		t.Fatal(err)
	} else if up {
		t.Error("link reported up on a down PHY")
	}

	// Auto-negotiation complete and link up: returns on the first poll.
	if err := d.EnableAutoNegotiation(true); err != nil {
		t.Fatal(err)
	}
	bus.regs[4][mii.AddrBMSR] = uint16(mii.BMSRLinkStatus | mii.BMSRANComplete | mii.BMSRANCap)
	up, err = d.WaitForLinkWithDeadline(time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	} else if !up {
		t.Error("link reported down")
	}

	// Isolated PHY cannot link.
	bus.regs[4][mii.AddrBMCR] = uint16(mii.BMCRIsolate)
	if _, err := d.WaitForLinkWithDeadline(time.Now().Add(time.Second)); err == nil {
		t.Error("expected error waiting on an isolated PHY")
	}
	bus.regs[4][mii.AddrBMCR] = uint16(mii.BMCRPowerDown)
	if _, err := d.WaitForLinkWithDeadline(time.Now().Add(time.Second)); err == nil {
		t.Error("expected error waiting on a powered-down PHY")
	}
}

func TestDeviceNegotiatedLink(t *testing.T) {
	bus := &memBus{}
	bus.present[2] = true
	bus.regs[2][mii.AddrBMSR] = uint16(mii.BMSRANComplete)
	bus.regs[2][mii.AddrANAR] = uint16(mii.ANARSelector8023 | mii.ANAR10Half | mii.ANAR10Full | mii.ANAR100Half | mii.ANAR100Full)
	bus.regs[2][mii.AddrANLPAR] = uint16(mii.ANARSelector8023 | mii.ANAR10Half | mii.ANAR10Full | mii.ANAR100Half)

	var d mii.Device
	if err := d.Configure(bus, 2); err != nil {
		t.Fatal(err)
	}
	mode, err := d.NegotiatedLink()
	if err != nil {
		t.Fatal(err)
	}
	if mode != mii.Link100HDX {
		t.Errorf("negotiated %s, want 100M-H", mode)
	}
	if mode.SpeedMbps() != 100 || mode.IsFullDuplex() {
		t.Errorf("mode %s resolved to %dMbps full-duplex=%v", mode, mode.SpeedMbps(), mode.IsFullDuplex())
	}

	// Incomplete negotiation reports LinkDown with an error.
	bus.regs[2][mii.AddrBMSR] = 0x0008
	if _, err := d.NegotiatedLink(); err == nil {
		t.Error("expected error while auto-negotiation incomplete")
	}
}

// TestDeviceOverBitBang runs the register layer over the real bit-level
// master against the software PHY model, end to end.
func TestDeviceOverBitBang(t *testing.T) {
	slave := &mdtest.Slave{PhyAddr: 19}
	slave.Regs[mii.AddrBMSR] = uint16(mii.BMSRLinkStatus | mii.BMSRANCap)
	slave.Regs[mii.AddrID1] = 0x0180
	bb := &mdio.BitBang{}
	bb.Configure(slave.Cycle)

	var d mii.Device
	if err := d.Configure(bb, 19); err != nil {
		t.Fatal(err)
	}
	up, err := d.IsLinkUp()
	if err != nil {
		t.Fatal(err)
	} else if !up {
		t.Error("link reported down through bit-level path")
	}
	id1, err := d.ID1()
	if err != nil || id1 != 0x0180 {
		t.Errorf("ID1 = %#04x, %v", id1, err)
	}
	ad := mii.ANARSelector8023 | mii.ANAR100Full
	if err := d.SetAdvertisement(ad); err != nil {
		t.Fatal(err)
	}
	if got := mii.ANAR(slave.Regs[mii.AddrANAR]); got != ad {
		t.Errorf("advertisement landed as %#04x, want %#04x", uint16(got), uint16(ad))
	}
	if slave.BadFrames != 0 {
		t.Errorf("PHY model saw %d protocol violations", slave.BadFrames)
	}

	n, err := mii.FindClause22PHYs(bb, make([]uint8, 32))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("bus scan found %d PHYs, want 1", n)
	}
}
