package updi

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-updi/device"
)

// application implements the NVM programming procedures on top of the
// datalink layer: key handshakes, reset sequencing, NVM controller
// commands and block transfers.
type application struct {
	link *datalink
	chip *device.Chip
	log  logrus.FieldLogger
}

// deviceInfo reads the system information block and, when the device is
// already in programming mode, the signature row and silicon revision.
func (a *application) deviceInfo() error {
	sib, err := a.link.readSIB()
	if err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"family":  strings.TrimSpace(string(sib[:8])),
		"nvm_rev": string(sib[10]),
		"ocd_rev": string(sib[13]),
		"osc":     fmt.Sprintf("%cMHz", sib[15]),
	}).Info("device SIB")

	if !a.inProgMode() {
		return nil
	}

	id := make([]byte, 3)
	if err := a.readData(a.chip.Reg.SigRow, id); err != nil {
		return fmt.Errorf("read signature row: %w", err)
	}
	rev := make([]byte, 1)
	if err := a.readData(a.chip.Reg.SysCfg+1, rev); err != nil {
		return fmt.Errorf("read silicon revision: %w", err)
	}
	a.log.Infof("device ID %02x %02x %02x rev %c", id[0], id[1], id[2], 'A'+rev[0])

	return nil
}

// inProgMode checks whether the NVMPROG flag is up.
func (a *application) inProgMode() bool {
	status, err := a.link.ldcs(csASISysStatus)
	return err == nil && status&(1<<sysStatusNVMProg) != 0
}

// waitUnlocked polls the system status until the lock flag drops.
func (a *application) waitUnlocked(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		status, err := a.link.ldcs(csASISysStatus)
		if err == nil && status&(1<<sysStatusLockStatus) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for unlock (status 0x%02X)", status)
		}
		time.Sleep(time.Millisecond)
	}
}

// unlock erases and unlocks a locked device with the chip-erase key.
func (a *application) unlock() error {
	if err := a.link.key(keyChipErase); err != nil {
		return err
	}

	status, err := a.link.ldcs(csASIKeyStatus)
	if err != nil {
		return err
	}
	if status&(1<<keyStatusChipErase) == 0 {
		return fmt.Errorf("chip erase key not accepted (status 0x%02X)", status)
	}

	if err := a.toggleReset(); err != nil {
		return err
	}
	if err := a.waitUnlocked(100 * time.Millisecond); err != nil {
		return fmt.Errorf("chip erase with key: %w", err)
	}
	return nil
}

// enterProgmode puts the device into NVM programming mode using the
// NVMPROG key.
func (a *application) enterProgmode() error {
	if a.inProgMode() {
		a.log.Debug("already in NVM programming mode")
		return nil
	}

	if err := a.link.key(keyNVMProg); err != nil {
		return err
	}

	status, err := a.link.ldcs(csASIKeyStatus)
	if err != nil {
		return err
	}
	if status&(1<<keyStatusNVMProg) == 0 {
		return fmt.Errorf("NVM key not accepted (status 0x%02X)", status)
	}

	if err := a.toggleReset(); err != nil {
		return err
	}
	if err := a.waitUnlocked(100 * time.Millisecond); err != nil {
		return fmt.Errorf("entering programming mode: %w", err)
	}

	if !a.inProgMode() {
		return fmt.Errorf("failed to enter NVM programming mode")
	}
	a.log.Debug("now in NVM programming mode")
	return nil
}

// leaveProgmode resets the device and disables the UPDI interface, which
// releases any active keys.
func (a *application) leaveProgmode() error {
	if err := a.toggleReset(); err != nil {
		return err
	}
	return a.link.stcs(csCtrlB, 1<<ctrlBUPDIDisBit|1<<ctrlBCCDetDisBit)
}

func (a *application) reset(apply bool) error {
	value := byte(0)
	if apply {
		value = resetReqValue
	}
	return a.link.stcs(csASIResetReq, value)
}

func (a *application) toggleReset() error {
	if err := a.reset(true); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	return a.reset(false)
}

// waitFlashReady polls the NVM controller status until both busy flags
// clear. A write error flag is reported immediately.
func (a *application) waitFlashReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		status, err := a.link.ld(a.chip.Reg.NVMCtrl + nvmStatus)
		if err != nil {
			return err
		}
		if status&(1<<nvmStatusWriteError) != 0 {
			return fmt.Errorf("NVM controller write error (status 0x%02X)", status)
		}
		if status&(1<<nvmStatusFlashBusy|1<<nvmStatusEEPROMBusy) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for NVM controller (status 0x%02X)", status)
		}
		time.Sleep(time.Millisecond)
	}
}

func (a *application) nvmCommand(cmd byte) error {
	a.log.Debugf("NVM command 0x%02X", cmd)
	return a.link.st(a.chip.Reg.NVMCtrl+nvmCtrlA, cmd)
}

// chipErase erases the whole device through the NVM controller. On locked
// devices this is not possible and the erase key must be used instead.
func (a *application) chipErase() error {
	if err := a.waitFlashReady(time.Second); err != nil {
		return fmt.Errorf("before erase: %w", err)
	}
	if err := a.nvmCommand(nvmCmdChipErase); err != nil {
		return err
	}
	if err := a.waitFlashReady(time.Second); err != nil {
		return fmt.Errorf("after erase: %w", err)
	}
	return nil
}

// writeData writes bytes to memory through the pointer with REPEAT.
func (a *application) writeData(address uint16, data []byte) error {
	if len(data) == 1 {
		return a.link.st(address, data[0])
	}
	if len(data) > maxRepeat+1 {
		return fmt.Errorf("write length %d over block limit", len(data))
	}

	if err := a.link.stPtr(address); err != nil {
		return err
	}
	if err := a.link.repeat(len(data)); err != nil {
		return err
	}
	return a.link.stPtrInc(data)
}

// writeDataWords writes an even number of bytes to memory word-wise.
func (a *application) writeDataWords(address uint16, data []byte) error {
	if len(data) == 2 {
		return a.link.st16(address, uint16(data[0])|uint16(data[1])<<8)
	}
	if len(data) > (maxRepeat+1)*2 {
		return fmt.Errorf("write length %d over block limit", len(data))
	}

	if err := a.link.stPtr(address); err != nil {
		return err
	}
	if err := a.link.repeat(len(data) / 2); err != nil {
		return err
	}
	return a.link.stPtrInc16(data)
}

// readData reads bytes from memory through the pointer with REPEAT.
func (a *application) readData(address uint16, buf []byte) error {
	if len(buf) > maxRepeat+1 {
		return fmt.Errorf("read length %d over block limit", len(buf))
	}

	if err := a.link.stPtr(address); err != nil {
		return err
	}
	if len(buf) > 1 {
		if err := a.link.repeat(len(buf)); err != nil {
			return err
		}
	}
	return a.link.ldPtrInc(buf)
}

// readDataWords reads an even number of bytes from memory word-wise.
func (a *application) readDataWords(address uint16, buf []byte) error {
	if len(buf) > (maxRepeat+1)*2 {
		return fmt.Errorf("read length %d over block limit", len(buf))
	}

	if err := a.link.stPtr(address); err != nil {
		return err
	}
	if len(buf) > 2 {
		if err := a.link.repeat(len(buf) / 2); err != nil {
			return err
		}
	}
	return a.link.ldPtrInc16(buf)
}

// writeNVMPage programs one flash page: clear the page buffer, load it,
// commit with the write-page command.
func (a *application) writeNVMPage(address uint16, data []byte) error {
	if err := a.waitFlashReady(time.Second); err != nil {
		return fmt.Errorf("before page buffer clear: %w", err)
	}
	if err := a.nvmCommand(nvmCmdPageBufferClr); err != nil {
		return err
	}
	if err := a.waitFlashReady(time.Second); err != nil {
		return fmt.Errorf("after page buffer clear: %w", err)
	}

	// Word access is faster; fall back to bytes for odd lengths.
	var err error
	if len(data)%2 == 0 {
		err = a.writeDataWords(address, data)
	} else {
		err = a.writeData(address, data)
	}
	if err != nil {
		return err
	}

	if err := a.nvmCommand(nvmCmdWritePage); err != nil {
		return err
	}
	if err := a.waitFlashReady(time.Second); err != nil {
		return fmt.Errorf("after page write: %w", err)
	}
	return nil
}

// readNVM reads one block from NVM, word-wise when the length allows.
func (a *application) readNVM(address uint16, buf []byte) error {
	if len(buf)%2 == 0 {
		return a.readDataWords(address, buf)
	}
	return a.readData(address, buf)
}
