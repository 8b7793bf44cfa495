package mii

// Standard MII register numbers as defined by IEEE 802.3 Clause 22.2.4.
const (
	AddrBMCR   = 0x00 // Basic Mode Control Register.
	AddrBMSR   = 0x01 // Basic Mode Status Register.
	AddrID1    = 0x02 // PHY Identifier 1: OUI bits 3-18.
	AddrID2    = 0x03 // PHY Identifier 2: OUI bits 19-24, model, revision.
	AddrANAR   = 0x04 // Auto-Negotiation Advertisement Register.
	AddrANLPAR = 0x05 // Auto-Negotiation Link Partner Ability Register.
	AddrANER   = 0x06 // Auto-Negotiation Expansion Register.
)

// BMCR is the Basic Mode Control Register at address 0x00.
type BMCR uint16

const (
	BMCRSpeed1000  BMCR = 0x0040 // MSB of speed selection (1000Mbps)
	BMCRCollision  BMCR = 0x0080 // Collision test
	BMCRFullDuplex BMCR = 0x0100 // Full duplex mode
	BMCRANRestart  BMCR = 0x0200 // Restart auto-negotiation
	BMCRIsolate    BMCR = 0x0400 // Isolate PHY from MII
	BMCRPowerDown  BMCR = 0x0800 // Power down PHY
	BMCRANEnable   BMCR = 0x1000 // Enable auto-negotiation
	BMCRSpeed100   BMCR = 0x2000 // Select 100Mbps
	BMCRLoopback   BMCR = 0x4000 // Enable TXD loopback
	BMCRReset      BMCR = 0x8000 // Software reset (self-clearing)
)

// BMSR is the Basic Mode Status Register at address 0x01. LinkStatus and
// remote-fault bits are latched low: the first read after a fault clears
// them, so read twice for fresh status.
type BMSR uint16

const (
	BMSRExtCap      BMSR = 0x0001 // Extended register capability
	BMSRJabber      BMSR = 0x0002 // Jabber detected
	BMSRLinkStatus  BMSR = 0x0004 // Link status (1=up)
	BMSRANCap       BMSR = 0x0008 // Auto-negotiation capable
	BMSRRemoteFault BMSR = 0x0010 // Remote fault detected
	BMSRANComplete  BMSR = 0x0020 // Auto-negotiation complete
	BMSRNoPreamble  BMSR = 0x0040 // Preamble suppression capable
	BMSR10Half      BMSR = 0x0800 // 10Mbps half-duplex capable
	BMSR10Full      BMSR = 0x1000 // 10Mbps full-duplex capable
	BMSR100Half     BMSR = 0x2000 // 100Mbps half-duplex capable
	BMSR100Full     BMSR = 0x4000 // 100Mbps full-duplex capable
	BMSR100Base4    BMSR = 0x8000 // 100BASE-T4 capable
)

// LinkUp returns true if link is established.
func (s BMSR) LinkUp() bool { return s&BMSRLinkStatus != 0 }

// AutoNegotiationComplete returns true once auto-negotiation has finished.
func (s BMSR) AutoNegotiationComplete() bool { return s&BMSRANComplete != 0 }

// ANAR is the Auto-Negotiation Advertisement Register value at address 0x04.
// ANLPAR (link partner ability, address 0x05) shares the bit layout.
type ANAR uint16

const (
	ANARSelector8023 ANAR = 0x0001 // IEEE 802.3 selector (required)
	ANAR10Half       ANAR = 0x0020 // 10BASE-T half-duplex
	ANAR10Full       ANAR = 0x0040 // 10BASE-T full-duplex
	ANAR100Half      ANAR = 0x0080 // 100BASE-TX half-duplex
	ANAR100Full      ANAR = 0x0100 // 100BASE-TX full-duplex
	ANAR100BaseT4    ANAR = 0x0200 // 100BASE-T4
	ANARPause        ANAR = 0x0400 // Pause capability
	ANARPauseAsym    ANAR = 0x0800 // Asymmetric pause
	ANARRemoteFault  ANAR = 0x2000 // Remote fault
	ANARAck          ANAR = 0x4000 // Acknowledge (ANLPAR only)
	ANARNextPage     ANAR = 0x8000 // Next page capable
)

// LinkMode returns the highest priority link mode among the speed bits,
// following the priority order of IEEE 802.3 Annex 28B.3. Returns LinkDown
// when no speed bit is set.
func (a ANAR) LinkMode() LinkMode {
	switch {
	case a&ANAR100Full != 0:
		return Link100FDX
	case a&ANAR100BaseT4 != 0:
		return Link100T4
	case a&ANAR100Half != 0:
		return Link100HDX
	case a&ANAR10Full != 0:
		return Link10FDX
	case a&ANAR10Half != 0:
		return Link10HDX
	default:
		return LinkDown
	}
}

// LinkMode is a negotiated or forced Ethernet speed/duplex combination.
// HDX is half-duplex, FDX full-duplex, T4 the legacy 100BASE-T4 mode.
type LinkMode uint8

const (
	LinkDown LinkMode = iota
	Link10HDX
	Link10FDX
	Link100HDX
	Link100FDX
	Link100T4
	Link1000HDX
	Link1000FDX
)

// SpeedMbps returns the link speed in megabits per second, 0 for LinkDown.
func (lm LinkMode) SpeedMbps() int {
	switch lm {
	case Link10HDX, Link10FDX:
		return 10
	case Link100HDX, Link100FDX, Link100T4:
		return 100
	case Link1000HDX, Link1000FDX:
		return 1000
	default:
		return 0
	}
}

// IsFullDuplex returns true for full-duplex modes.
func (lm LinkMode) IsFullDuplex() bool {
	switch lm {
	case Link10FDX, Link100FDX, Link1000FDX:
		return true
	default:
		return false
	}
}

func (lm LinkMode) String() string {
	switch lm {
	case LinkDown:
		return "down"
	case Link10HDX:
		return "10M-H"
	case Link10FDX:
		return "10M-F"
	case Link100HDX:
		return "100M-H"
	case Link100FDX:
		return "100M-F"
	case Link100T4:
		return "100M-T4"
	case Link1000HDX:
		return "1000M-H"
	case Link1000FDX:
		return "1000M-F"
	default:
		return "mode?"
	}
}
