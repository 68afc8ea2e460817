package updi

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-updi/device"
)

// ErrNotInProgmode is returned when an NVM operation is attempted before
// the device has been put into programming mode.
var ErrNotInProgmode = errors.New("updi: device not in programming mode")

// Session is an open UPDI connection to one device. It owns the serial
// port and tracks whether programming mode is active. Sessions are not
// safe for concurrent use.
type Session struct {
	app      *application
	chip     *device.Chip
	progmode bool
	cfg      *config
}

// Open connects to the device behind the given serial port and brings the
// UPDI interface up. The returned session must be closed with Close.
func Open(port string, baud int, chip *device.Chip, opts ...Option) (*Session, error) {
	if chip == nil {
		panic("updi: nil chip")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	p, err := openSerialPhy(port, baud, cfg.log)
	if err != nil {
		return nil, err
	}

	link, err := newDatalink(p, cfg.log)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return &Session{
		app:  &application{link: link, chip: chip, log: cfg.log},
		chip: chip,
		cfg:  cfg,
	}, nil
}

// checkDataSpace rejects transfers that fall outside the 16-bit data
// space before the address is narrowed for the wire.
func checkDataSpace(address uint32, n int) error {
	if address > 0xFFFF || address+uint32(n) > 0x10000 {
		return fmt.Errorf("updi: range 0x%X+%d outside the 16-bit data space", address, n)
	}
	return nil
}

// DeviceInfo queries and logs the system information block. When the
// device is in programming mode the signature row is read as well.
func (s *Session) DeviceInfo() error {
	return s.app.deviceInfo()
}

// InProgmode reports whether programming mode is active.
func (s *Session) InProgmode() bool {
	return s.progmode
}

// EnterProgmode puts the device into NVM programming mode. On locked
// devices this fails; Unlock must be used instead.
func (s *Session) EnterProgmode() error {
	if err := s.app.enterProgmode(); err != nil {
		return err
	}
	s.progmode = true
	return nil
}

// LeaveProgmode resets the device and releases the UPDI interface. It is
// a no-op when programming mode was never entered.
func (s *Session) LeaveProgmode() error {
	if !s.progmode {
		return nil
	}
	s.progmode = false
	return s.app.leaveProgmode()
}

// Unlock erases a locked device with the chip-erase key and then enters
// programming mode. All NVM contents are lost.
func (s *Session) Unlock() error {
	if s.progmode {
		return nil
	}
	if err := s.app.unlock(); err != nil {
		return err
	}
	if err := s.app.enterProgmode(); err != nil {
		return err
	}
	s.progmode = true
	return nil
}

// ChipErase erases the whole device through the NVM controller.
func (s *Session) ChipErase() error {
	if !s.progmode {
		return ErrNotInProgmode
	}
	return s.app.chipErase()
}

// FlashInfo returns the flash geometry of the connected device.
func (s *Session) FlashInfo() (device.FlashInfo, error) {
	return s.chip.Flash, nil
}

// ReadFlash reads len(buf) bytes of flash starting at address. The length
// must be a whole number of pages and address must be page aligned.
func (s *Session) ReadFlash(address uint32, buf []byte) error {
	page := int(s.chip.Flash.PageSize)
	if len(buf)%page != 0 || address%s.chip.Flash.PageSize != 0 {
		return fmt.Errorf("updi: flash read of %d bytes at 0x%04X not page aligned", len(buf), address)
	}
	if err := checkDataSpace(address, len(buf)); err != nil {
		return err
	}

	for off := 0; off < len(buf); off += page {
		if err := s.app.readNVM(uint16(address)+uint16(off), buf[off:off+page]); err != nil {
			return fmt.Errorf("read page at 0x%04X: %w", address+uint32(off), err)
		}
	}
	return nil
}

// WriteFlash programs data to flash starting at address, one page at a
// time. The length must be a whole number of pages and address must be
// page aligned.
func (s *Session) WriteFlash(address uint32, data []byte) error {
	if !s.progmode {
		return ErrNotInProgmode
	}
	page := int(s.chip.Flash.PageSize)
	if len(data)%page != 0 || address%s.chip.Flash.PageSize != 0 {
		return fmt.Errorf("updi: flash write of %d bytes at 0x%04X not page aligned", len(data), address)
	}
	if err := checkDataSpace(address, len(data)); err != nil {
		return err
	}

	pages := len(data) / page
	for i := 0; i < pages; i++ {
		off := i * page
		s.cfg.log.Debugf("writing page %d/%d at 0x%04X", i+1, pages, address+uint32(off))
		if err := s.app.writeNVMPage(uint16(address)+uint16(off), data[off:off+page]); err != nil {
			return fmt.Errorf("write page at 0x%04X: %w", address+uint32(off), err)
		}
	}
	return nil
}

// WriteFuse programs one fuse byte through the NVM controller fuse
// write command.
func (s *Session) WriteFuse(index int, value byte) error {
	if !s.progmode {
		return ErrNotInProgmode
	}

	fuseAddr := s.chip.Reg.Fuses + uint16(index)
	nvm := s.chip.Reg.NVMCtrl

	if err := s.app.writeData(nvm+nvmAddrL, []byte{byte(fuseAddr)}); err != nil {
		return fmt.Errorf("fuse address low: %w", err)
	}
	if err := s.app.writeData(nvm+nvmAddrH, []byte{byte(fuseAddr >> 8)}); err != nil {
		return fmt.Errorf("fuse address high: %w", err)
	}
	if err := s.app.writeData(nvm+nvmDataL, []byte{value}); err != nil {
		return fmt.Errorf("fuse data: %w", err)
	}
	if err := s.app.writeData(nvm+nvmCtrlA, []byte{nvmCmdWriteFuse}); err != nil {
		return fmt.Errorf("fuse write command: %w", err)
	}
	return nil
}

// ReadMem reads len(buf) bytes from an arbitrary data space address,
// splitting the transfer into repeat-sized blocks.
func (s *Session) ReadMem(address uint32, buf []byte) error {
	if err := checkDataSpace(address, len(buf)); err != nil {
		return err
	}
	for off := 0; off < len(buf); {
		n := len(buf) - off
		if n > maxRepeat+1 {
			n = maxRepeat + 1
		}
		if err := s.app.readData(uint16(address)+uint16(off), buf[off:off+n]); err != nil {
			return fmt.Errorf("read %d bytes at 0x%04X: %w", n, address+uint32(off), err)
		}
		off += n
	}
	return nil
}

// WriteMem writes data to an arbitrary data space address, splitting the
// transfer into repeat-sized blocks.
func (s *Session) WriteMem(address uint32, data []byte) error {
	if err := checkDataSpace(address, len(data)); err != nil {
		return err
	}
	for off := 0; off < len(data); {
		n := len(data) - off
		if n > maxRepeat+1 {
			n = maxRepeat + 1
		}
		if err := s.app.writeData(uint16(address)+uint16(off), data[off:off+n]); err != nil {
			return fmt.Errorf("write %d bytes at 0x%04X: %w", n, address+uint32(off), err)
		}
		off += n
	}
	return nil
}

// Close releases the serial port. It does not leave programming mode;
// call LeaveProgmode first if the device should resume running.
func (s *Session) Close() error {
	return s.app.link.phy.Close()
}
