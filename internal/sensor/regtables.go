package sensor

import "github.com/soho-enterprise/imx585-go/internal/regio"

func rv8(addr uint16, val uint32) regio.RegVal {
	return regio.RegVal{Reg: regio.Reg8(addr), Val: val}
}

// commonRegs is written once per power cycle before any mode programming.
// The first block sets named operating registers; the rest is the
// datasheet-recommended analog tuning sequence.
var commonRegs = []regio.RegVal{
	rv8(0x3002, 0x01), // XMSTA hold
	rv8(0x3069, 0x00),
	rv8(0x3074, 0x64),
	rv8(0x30d5, 0x04), // DIG_CLP_VSTART
	rv8(0x3030, 0x00), // FDG_SEL0 LCG (HCG=0x01)
	rv8(0x30a6, 0x00), // XVS_DRV [1:0] Hi-Z
	rv8(0x3081, 0x00), // EXP_GAIN reset
	rv8(0x303a, 0x03), // disable embedded data

	rv8(0x3460, 0x21), rv8(0x3478, 0xa1), rv8(0x347c, 0x01), rv8(0x3480, 0x01),
	rv8(0x3a4e, 0x14), rv8(0x3a52, 0x14), rv8(0x3a56, 0x00), rv8(0x3a5a, 0x00),
	rv8(0x3a5e, 0x00), rv8(0x3a62, 0x00), rv8(0x3a6a, 0x20), rv8(0x3a6c, 0x42),
	rv8(0x3a6e, 0xa0), rv8(0x3b2c, 0x0c), rv8(0x3b30, 0x1c), rv8(0x3b34, 0x0c),
	rv8(0x3b38, 0x1c), rv8(0x3ba0, 0x0c), rv8(0x3ba4, 0x1c), rv8(0x3ba8, 0x0c),
	rv8(0x3bac, 0x1c), rv8(0x3d3c, 0x11), rv8(0x3d46, 0x0b), rv8(0x3de0, 0x3f),
	rv8(0x3de1, 0x08), rv8(0x3e14, 0x87), rv8(0x3e16, 0x91), rv8(0x3e18, 0x91),
	rv8(0x3e1a, 0x87), rv8(0x3e1c, 0x78), rv8(0x3e1e, 0x50), rv8(0x3e20, 0x50),
	rv8(0x3e22, 0x50), rv8(0x3e24, 0x87), rv8(0x3e26, 0x91), rv8(0x3e28, 0x91),
	rv8(0x3e2a, 0x87), rv8(0x3e2c, 0x78), rv8(0x3e2e, 0x50), rv8(0x3e30, 0x50),
	rv8(0x3e32, 0x50), rv8(0x3e34, 0x87), rv8(0x3e36, 0x91), rv8(0x3e38, 0x91),
	rv8(0x3e3a, 0x87), rv8(0x3e3c, 0x78), rv8(0x3e3e, 0x50), rv8(0x3e40, 0x50),
	rv8(0x3e42, 0x50), rv8(0x4054, 0x64), rv8(0x4148, 0xfe), rv8(0x4149, 0x05),
	rv8(0x414a, 0xff), rv8(0x414b, 0x05), rv8(0x420a, 0x03), rv8(0x4231, 0x08),
	rv8(0x423d, 0x9c), rv8(0x4242, 0xb4), rv8(0x4246, 0xb4), rv8(0x424e, 0xb4),
	rv8(0x425c, 0xb4), rv8(0x425e, 0xb6), rv8(0x426c, 0xb4), rv8(0x426e, 0xb6),
	rv8(0x428c, 0xb4), rv8(0x428e, 0xb6), rv8(0x4708, 0x00), rv8(0x4709, 0x00),
	rv8(0x470a, 0xff), rv8(0x470b, 0x03), rv8(0x470c, 0x00), rv8(0x470d, 0x00),
	rv8(0x470e, 0xff), rv8(0x470f, 0x03), rv8(0x47eb, 0x1c), rv8(0x47f0, 0xa6),
	rv8(0x47f2, 0xa6), rv8(0x47f4, 0xa0), rv8(0x47f6, 0x96), rv8(0x4808, 0xa6),
	rv8(0x480a, 0xa6), rv8(0x480c, 0xa0), rv8(0x480e, 0x96), rv8(0x492c, 0xb2),
	rv8(0x4930, 0x03), rv8(0x4932, 0x03), rv8(0x4936, 0x5b), rv8(0x4938, 0x82),
	rv8(0x493e, 0x23), rv8(0x4ba8, 0x1c), rv8(0x4ba9, 0x03), rv8(0x4bac, 0x1c),
	rv8(0x4bad, 0x1c), rv8(0x4bae, 0x1c), rv8(0x4baf, 0x1c), rv8(0x4bb0, 0x1c),
	rv8(0x4bb1, 0x1c), rv8(0x4bb2, 0x1c), rv8(0x4bb3, 0x1c), rv8(0x4bb4, 0x1c),
	rv8(0x4bb8, 0x03), rv8(0x4bb9, 0x03), rv8(0x4bba, 0x03), rv8(0x4bbb, 0x03),
	rv8(0x4bbc, 0x03), rv8(0x4bbd, 0x03), rv8(0x4bbe, 0x03), rv8(0x4bbf, 0x03),
	rv8(0x4bc0, 0x03), rv8(0x4c14, 0x87), rv8(0x4c16, 0x91), rv8(0x4c18, 0x91),
	rv8(0x4c1a, 0x87), rv8(0x4c1c, 0x78), rv8(0x4c1e, 0x50), rv8(0x4c20, 0x50),
	rv8(0x4c22, 0x50), rv8(0x4c24, 0x87), rv8(0x4c26, 0x91), rv8(0x4c28, 0x91),
	rv8(0x4c2a, 0x87), rv8(0x4c2c, 0x78), rv8(0x4c2e, 0x50), rv8(0x4c30, 0x50),
	rv8(0x4c32, 0x50), rv8(0x4c34, 0x87), rv8(0x4c36, 0x91), rv8(0x4c38, 0x91),
	rv8(0x4c3a, 0x87), rv8(0x4c3c, 0x78), rv8(0x4c3e, 0x50), rv8(0x4c40, 0x50),
	rv8(0x4c42, 0x50), rv8(0x4d12, 0x1f), rv8(0x4d13, 0x1e), rv8(0x4d26, 0x33),
	rv8(0x4e0e, 0x59), rv8(0x4e14, 0x55), rv8(0x4e16, 0x59), rv8(0x4e1e, 0x3b),
	rv8(0x4e20, 0x47), rv8(0x4e22, 0x54), rv8(0x4e26, 0x81), rv8(0x4e2c, 0x7d),
	rv8(0x4e2e, 0x81), rv8(0x4e36, 0x63), rv8(0x4e38, 0x6f), rv8(0x4e3a, 0x7c),
	rv8(0x4f3a, 0x3c), rv8(0x4f3c, 0x46), rv8(0x4f3e, 0x59), rv8(0x4f42, 0x64),
	rv8(0x4f44, 0x6e), rv8(0x4f46, 0x81), rv8(0x4f4a, 0x82), rv8(0x4f5a, 0x81),
	rv8(0x4f62, 0xaa), rv8(0x4f72, 0xa9), rv8(0x4f78, 0x36), rv8(0x4f7a, 0x41),
	rv8(0x4f7c, 0x61), rv8(0x4f7d, 0x01), rv8(0x4f7e, 0x7c), rv8(0x4f7f, 0x01),
	rv8(0x4f80, 0x77), rv8(0x4f82, 0x7b), rv8(0x4f88, 0x37), rv8(0x4f8a, 0x40),
	rv8(0x4f8c, 0x62), rv8(0x4f8d, 0x01), rv8(0x4f8e, 0x76), rv8(0x4f8f, 0x01),
	rv8(0x4f90, 0x5e), rv8(0x4f91, 0x02), rv8(0x4f92, 0x69), rv8(0x4f93, 0x02),
	rv8(0x4f94, 0x89), rv8(0x4f95, 0x02), rv8(0x4f96, 0xa4), rv8(0x4f97, 0x02),
	rv8(0x4f98, 0x9f), rv8(0x4f99, 0x02), rv8(0x4f9a, 0xa3), rv8(0x4f9b, 0x02),
	rv8(0x4fa0, 0x5f), rv8(0x4fa1, 0x02), rv8(0x4fa2, 0x68), rv8(0x4fa3, 0x02),
	rv8(0x4fa4, 0x8a), rv8(0x4fa5, 0x02), rv8(0x4fa6, 0x9e), rv8(0x4fa7, 0x02),
	rv8(0x519e, 0x79), rv8(0x51a6, 0xa1), rv8(0x51f0, 0xac), rv8(0x51f2, 0xaa),
	rv8(0x51f4, 0xa5), rv8(0x51f6, 0xa0), rv8(0x5200, 0x9b), rv8(0x5202, 0x91),
	rv8(0x5204, 0x87), rv8(0x5206, 0x82), rv8(0x5208, 0xac), rv8(0x520a, 0xaa),
	rv8(0x520c, 0xa5), rv8(0x520e, 0xa0), rv8(0x5210, 0x9b), rv8(0x5212, 0x91),
	rv8(0x5214, 0x87), rv8(0x5216, 0x82), rv8(0x5218, 0xac), rv8(0x521a, 0xaa),
	rv8(0x521c, 0xa5), rv8(0x521e, 0xa0), rv8(0x5220, 0x9b), rv8(0x5222, 0x91),
	rv8(0x5224, 0x87), rv8(0x5226, 0x82),
}

// clearHDRRegs switches the sensor into Clear HDR readout.
var clearHDRRegs = []regio.RegVal{
	rv8(0x301a, 0x10), // WDMODE: Clear HDR
	rv8(0x3024, 0x02), // COMBI_EN
	rv8(0x3069, 0x02),
	rv8(0x3074, 0x63),
	rv8(0x3930, 0xe6), // DUR[15:8] (12-bit)
	rv8(0x3931, 0x00), // DUR[7:0]  (12-bit)
	rv8(0x3a4c, 0x61), rv8(0x3a4d, 0x02),
	rv8(0x3a50, 0x70), rv8(0x3a51, 0x02),
	rv8(0x3e10, 0x17), // ADTHEN
	rv8(0x493c, 0x41), // 10-bit HDR
	rv8(0x4940, 0x41), // 12-bit HDR
	rv8(0x3081, 0x02), // EXP_GAIN: +12 dB default
}

// normalRegs switches the sensor into normal (non-HDR) readout.
var normalRegs = []regio.RegVal{
	rv8(0x301a, 0x00), // WDMODE: Normal
	rv8(0x3024, 0x00), // COMBI_EN
	rv8(0x3069, 0x00),
	rv8(0x3074, 0x64),
	rv8(0x3930, 0x0c), // DUR[15:8] (12-bit)
	rv8(0x3931, 0x01), // DUR[7:0]  (12-bit)
	rv8(0x3a4c, 0x39), rv8(0x3a4d, 0x01),
	rv8(0x3a50, 0x48), rv8(0x3a51, 0x01),
	rv8(0x3e10, 0x10), // ADTHEN
	rv8(0x493c, 0x23), // 10-bit Normal
	rv8(0x4940, 0x23), // 12-bit Normal
}

// All-pixel 4K readout.
var mode4KRegs = []regio.RegVal{
	rv8(0x301b, 0x00), // ADDMODE non-binning
	rv8(0x3022, 0x02), // ADBIT 12-bit
	rv8(0x3023, 0x01), // MDBIT 12-bit
	rv8(0x30d5, 0x04), // DIG_CLP_VSTART non-binning
}

// 2x2 binned 1080p readout.
var mode1080Regs = []regio.RegVal{
	rv8(0x301b, 0x01), // ADDMODE binning
	rv8(0x3022, 0x02), // ADBIT 12-bit
	rv8(0x3023, 0x01), // MDBIT 12-bit
	rv8(0x30d5, 0x02), // DIG_CLP_VSTART binning
}
