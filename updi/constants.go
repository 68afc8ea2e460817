package updi

// UPDI physical layer characters.
const (
	syncChar  = 0x55
	ackChar   = 0x40
	breakChar = 0x00
)

// Instruction set opcodes.
const (
	opLDS    = 0x00
	opLD     = 0x20
	opSTS    = 0x40
	opST     = 0x60
	opLDCS   = 0x80
	opRepeat = 0xA0
	opSTCS   = 0xC0
	opKey    = 0xE0
)

// Opcode modifier bits.
const (
	addr16 = 0x04
	data8  = 0x00
	data16 = 0x01

	ptrInc     = 0x04
	ptrAddress = 0x08

	repeatWord = 0x01

	keySend   = 0x00
	keySIB    = 0x04
	key64     = 0x00
	sibSize16 = 0x01

	// maxRepeat is the largest value of the REPEAT counter; a single
	// block transfer moves at most maxRepeat+1 bytes.
	maxRepeat = 0xFF
)

// Control/status space register addresses.
const (
	csStatusA      = 0x00
	csCtrlA        = 0x02
	csCtrlB        = 0x03
	csASIKeyStatus = 0x07
	csASIResetReq  = 0x08
	csASISysStatus = 0x0B
)

// Control/status register bits.
const (
	ctrlAIBDlyBit    = 7
	ctrlBUPDIDisBit  = 2
	ctrlBCCDetDisBit = 3

	keyStatusChipErase = 3
	keyStatusNVMProg   = 4

	sysStatusLockStatus = 0
	sysStatusNVMProg    = 3

	resetReqValue = 0x59
)

// NVM controller register offsets (relative to the NVMCTRL base).
const (
	nvmCtrlA  = 0x00
	nvmStatus = 0x02
	nvmDataL  = 0x06
	nvmAddrL  = 0x08
	nvmAddrH  = 0x09
)

// NVM controller commands.
const (
	nvmCmdWritePage     = 0x01
	nvmCmdPageBufferClr = 0x04
	nvmCmdChipErase     = 0x05
	nvmCmdWriteFuse     = 0x07
)

// NVM controller status bits.
const (
	nvmStatusFlashBusy  = 0
	nvmStatusEEPROMBusy = 1
	nvmStatusWriteError = 2
)

// 64-bit activation keys. The key characters are transmitted in reverse
// order on the wire.
const (
	keyNVMProg   = "NVMProg "
	keyChipErase = "NVMErase"
)
