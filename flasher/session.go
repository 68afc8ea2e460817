package flasher

import "github.com/moffa90/go-updi/device"

// Session is the device connection the programmer drives. *updi.Session
// satisfies it; tests substitute an in-memory fake.
type Session interface {
	// DeviceInfo queries and logs device identification.
	DeviceInfo() error

	// EnterProgmode puts the device into NVM programming mode. It fails
	// on locked devices.
	EnterProgmode() error

	// LeaveProgmode resets the device and releases the interface.
	LeaveProgmode() error

	// Unlock erases a locked device with the chip-erase key and enters
	// programming mode.
	Unlock() error

	// ChipErase erases the whole device.
	ChipErase() error

	// FlashInfo returns the flash geometry.
	FlashInfo() (device.FlashInfo, error)

	// ReadFlash reads whole pages starting at a page-aligned address.
	ReadFlash(address uint32, buf []byte) error

	// WriteFlash programs whole pages starting at a page-aligned address.
	WriteFlash(address uint32, data []byte) error

	// WriteFuse programs one fuse byte.
	WriteFuse(index int, value byte) error

	// ReadMem reads from an arbitrary data space address.
	ReadMem(address uint32, buf []byte) error

	// WriteMem writes to an arbitrary data space address.
	WriteMem(address uint32, data []byte) error

	// Close releases the underlying transport.
	Close() error
}
