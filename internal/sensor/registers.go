package sensor

import (
	"time"

	"github.com/soho-enterprise/imx585-go/internal/regio"
)

// Register map, from the IMX585 datasheet. Multi-byte registers are
// little-endian.
var (
	regModeSelect = regio.Reg8(0x3000) // 0x01 standby, 0x00 streaming
	regXMSTA      = regio.Reg8(0x3002) // master start pulse (leader mode)
	regINCKSel    = regio.Reg8(0x3014) // input clock select
	regDatarate   = regio.Reg8(0x3015) // link speed select
	regBinMode    = regio.Reg8(0x3019) // 0x01 mono binning, 0x00 color
	regFlipH      = regio.Reg8(0x3020) // WINMODEH
	regFlipV      = regio.Reg8(0x3021) // WINMODEV
	regVMax       = regio.Reg24LE(0x3028)
	regHMax       = regio.Reg16LE(0x302c)
	regFDGSel0    = regio.Reg8(0x3030) // 0x01 HCG, 0x00 LCG
	regLaneMode   = regio.Reg8(0x3040)
	regSHR        = regio.Reg24LE(0x3050)
	regAnalogGain = regio.Reg16LE(0x306c)
	regExpGain    = regio.Reg8(0x3081) // HDR gain adder
	regXXSOutSel  = regio.Reg8(0x30a4)
	regXXSDrv     = regio.Reg8(0x30a6)
	regXVSLng     = regio.Reg8(0x30cc) // XVS pulse length, 2^n H
	regXHSLng     = regio.Reg8(0x30cd) // XHS pulse length, 16*2^n clocks
	regExtMode    = regio.Reg8(0x30ce)
	regBlackLevel = regio.Reg16LE(0x30dc)
	regMDBit      = regio.Reg8(0x3023)
	regDigClamp   = regio.Reg8(0x3458)

	// ClearHDR threshold / blending / gradation compression
	regExpTHHigh = regio.Reg16LE(0x36d0)
	regExpTHLow  = regio.Reg16LE(0x36d4)
	regExpBK     = regio.Reg8(0x36e2)
	regCCMP2Exp  = regio.Reg24LE(0x36e4)
	regCCMP1Exp  = regio.Reg24LE(0x36e8)
	regACMP2Exp  = regio.Reg8(0x36ec)
	regACMP1Exp  = regio.Reg8(0x36ee)
	regCCMPEn    = regio.Reg8(0x36ef)
)

const (
	modeStandby   = 0x01
	modeStreaming = 0x00

	// Settle delay after enabling streaming before frames are valid.
	streamSettle = 25 * time.Millisecond

	vmaxMax     = 0xfffff
	vmaxDefault = 2250
	hmaxMax     = 0xffff

	shrMin    = 8
	shrMinHDR = 10

	exposureMin     = 2
	exposureStep    = 1
	exposureDefault = 1000

	blackLevelDefault = 50
	blackLevelRegMax  = 4095

	gainMinLCG = 0
	gainMinHCG = 34
	gainMaxHDR = 80
	gainMax    = 240
	gainStep   = 1

	// Sensor line clock proxy used to convert between HMAX clocks and
	// horizontal blanking in pixels.
	pixelRateConst = 74250000

	// Native and active pixel array geometry.
	nativeWidth      = 3856
	nativeHeight     = 2180
	pixelArrayLeft   = 8
	pixelArrayTop    = 8
	pixelArrayWidth  = 3840
	pixelArrayHeight = 2160
)

// Link frequency indices. The index selects a row in the datarate and base
// HMAX tables; only these eight frequencies are supported by the sensor PLL.
const (
	LinkFreq297MHz = iota // 594 Mbps/lane
	LinkFreq360MHz        // 720 Mbps/lane
	LinkFreq445MHz        // 891 Mbps/lane
	LinkFreq594MHz        // 1188 Mbps/lane
	LinkFreq720MHz        // 1440 Mbps/lane
	LinkFreq891MHz        // 1782 Mbps/lane
	LinkFreq1039MHz       // 2079 Mbps/lane
	LinkFreq1188MHz       // 2376 Mbps/lane

	numLinkFreqs
)

var linkFreqs = [numLinkFreqs]int64{
	297000000,
	360000000,
	445500000,
	594000000,
	720000000,
	891000000,
	1039500000,
	1188000000,
}

var datarateSel = [numLinkFreqs]uint32{
	0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00,
}

// Minimum HMAX for the 4-lane all-pixel 4K readout, per link frequency.
// 2-lane doubles it; per-mode divisors scale it down.
var baseHMax4Lane = [numLinkFreqs]uint32{
	1584, 1320, 1100, 792, 660, 550, 440, 396,
}

// Supported external clock rates and their INCK_SEL register values.
var inckTable = []struct {
	xclkHz  uint32
	inckSel uint32
}{
	{74250000, 0x00},
	{37125000, 0x01},
	{72000000, 0x02},
	{27000000, 0x03},
	{24000000, 0x04},
}

// SyncMode selects how the sensor frame timing is driven.
type SyncMode int

const (
	// SyncInternalLeader: sensor generates XVS/XHS from its own clock.
	SyncInternalLeader SyncMode = iota
	// SyncInternalFollower: sensor aligns to an external XVS input.
	SyncInternalFollower
	// SyncExternal: both XVS and XHS are driven externally.
	SyncExternal
)

func (m SyncMode) String() string {
	switch m {
	case SyncInternalLeader:
		return "internal-leader"
	case SyncInternalFollower:
		return "internal-follower"
	case SyncExternal:
		return "external"
	}
	return "unknown"
}
