package updi

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// datalink frames UPDI instructions onto the physical transport. Stores are
// acknowledged by the device with an ACK character; loads return data
// directly.
type datalink struct {
	phy phy
	log logrus.FieldLogger
}

func newDatalink(p phy, log logrus.FieldLogger) (*datalink, error) {
	l := &datalink{phy: p, log: log}

	// Disable collision detection and enable the inter-byte delay bit.
	if err := l.stcs(csCtrlB, 1<<ctrlBCCDetDisBit); err != nil {
		return nil, fmt.Errorf("init CTRLB: %w", err)
	}
	if err := l.stcs(csCtrlA, 1<<ctrlAIBDlyBit); err != nil {
		return nil, fmt.Errorf("init CTRLA: %w", err)
	}

	if err := l.check(); err != nil {
		return nil, err
	}
	return l, nil
}

// check loads CS STATUSA; a zero value means the UPDI interface did not
// come up.
func (l *datalink) check() error {
	v, err := l.ldcs(csStatusA)
	if err != nil {
		return err
	}
	if v == 0 {
		return errors.New("UPDI not responding, reinitialisation required")
	}
	l.log.Debugf("UPDI init OK (STATUSA 0x%02X)", v)
	return nil
}

// ldcs loads a byte from control/status space.
func (l *datalink) ldcs(address byte) (byte, error) {
	resp, err := l.phy.transfer([]byte{syncChar, opLDCS | address&0x0F}, 1)
	if err != nil {
		return 0, fmt.Errorf("LDCS 0x%02X: %w", address, err)
	}
	return resp[0], nil
}

// stcs stores a byte to control/status space. STCS is not acknowledged.
func (l *datalink) stcs(address, value byte) error {
	if err := l.phy.send([]byte{syncChar, opSTCS | address&0x0F, value}); err != nil {
		return fmt.Errorf("STCS 0x%02X: %w", address, err)
	}
	return nil
}

// ld loads one byte from a 16-bit data space address.
func (l *datalink) ld(address uint16) (byte, error) {
	cmd := []byte{syncChar, opLDS | addr16 | data8, byte(address), byte(address >> 8)}
	resp, err := l.phy.transfer(cmd, 1)
	if err != nil {
		return 0, fmt.Errorf("LDS 0x%04X: %w", address, err)
	}
	return resp[0], nil
}

// st stores one byte to a 16-bit data space address.
func (l *datalink) st(address uint16, value byte) error {
	cmd := []byte{syncChar, opSTS | addr16 | data8, byte(address), byte(address >> 8)}
	if err := l.expectAck(cmd); err != nil {
		return fmt.Errorf("STS 0x%04X: %w", address, err)
	}
	if err := l.expectAck([]byte{value}); err != nil {
		return fmt.Errorf("STS 0x%04X data: %w", address, err)
	}
	return nil
}

// st16 stores one word to a 16-bit data space address.
func (l *datalink) st16(address, value uint16) error {
	cmd := []byte{syncChar, opSTS | addr16 | data16, byte(address), byte(address >> 8)}
	if err := l.expectAck(cmd); err != nil {
		return fmt.Errorf("STS16 0x%04X: %w", address, err)
	}
	if err := l.expectAck([]byte{byte(value), byte(value >> 8)}); err != nil {
		return fmt.Errorf("STS16 0x%04X data: %w", address, err)
	}
	return nil
}

// stPtr sets the indirect address pointer.
func (l *datalink) stPtr(address uint16) error {
	cmd := []byte{syncChar, opST | ptrAddress | data16, byte(address), byte(address >> 8)}
	if err := l.expectAck(cmd); err != nil {
		return fmt.Errorf("ST ptr 0x%04X: %w", address, err)
	}
	return nil
}

// stPtrInc stores bytes at the pointer location with post-increment.
func (l *datalink) stPtrInc(data []byte) error {
	if err := l.expectAck([]byte{syncChar, opST | ptrInc | data8, data[0]}); err != nil {
		return fmt.Errorf("ST *ptr++: %w", err)
	}
	for i := 1; i < len(data); i++ {
		if err := l.expectAck(data[i : i+1]); err != nil {
			return fmt.Errorf("ST *ptr++ byte %d: %w", i, err)
		}
	}
	return nil
}

// stPtrInc16 stores words at the pointer location with post-increment.
// len(data) must be even.
func (l *datalink) stPtrInc16(data []byte) error {
	if err := l.expectAck([]byte{syncChar, opST | ptrInc | data16, data[0], data[1]}); err != nil {
		return fmt.Errorf("ST16 *ptr++: %w", err)
	}
	for i := 2; i < len(data); i += 2 {
		if err := l.expectAck(data[i : i+2]); err != nil {
			return fmt.Errorf("ST16 *ptr++ word %d: %w", i/2, err)
		}
	}
	return nil
}

// ldPtrInc loads bytes from the pointer location with post-increment.
func (l *datalink) ldPtrInc(buf []byte) error {
	if err := l.phy.send([]byte{syncChar, opLD | ptrInc | data8}); err != nil {
		return fmt.Errorf("LD *ptr++: %w", err)
	}
	return l.phy.receive(buf)
}

// ldPtrInc16 loads words from the pointer location with post-increment.
func (l *datalink) ldPtrInc16(buf []byte) error {
	if err := l.phy.send([]byte{syncChar, opLD | ptrInc | data16}); err != nil {
		return fmt.Errorf("LD16 *ptr++: %w", err)
	}
	return l.phy.receive(buf)
}

// repeat arms the repeat counter so the next instruction executes count
// times in total.
func (l *datalink) repeat(count int) error {
	if count < 1 || count > maxRepeat+1 {
		return fmt.Errorf("repeat count %d out of range", count)
	}
	n := uint16(count - 1)
	if err := l.phy.send([]byte{syncChar, opRepeat | repeatWord, byte(n), byte(n >> 8)}); err != nil {
		return fmt.Errorf("REPEAT %d: %w", count, err)
	}
	return nil
}

// readSIB reads the 16-byte system information block.
func (l *datalink) readSIB() ([]byte, error) {
	sib, err := l.phy.transfer([]byte{syncChar, opKey | keySIB | sibSize16}, 16)
	if err != nil {
		return nil, fmt.Errorf("read SIB: %w", err)
	}
	return sib, nil
}

// key transmits a 64-bit activation key. The key string goes out in
// reverse order.
func (l *datalink) key(key string) error {
	if len(key) != 8 {
		return fmt.Errorf("key must be 8 characters, got %d", len(key))
	}
	if err := l.phy.send([]byte{syncChar, opKey | keySend | key64}); err != nil {
		return fmt.Errorf("KEY: %w", err)
	}
	for i := len(key) - 1; i >= 0; i-- {
		if err := l.phy.send([]byte{key[i]}); err != nil {
			return fmt.Errorf("KEY byte %d: %w", i, err)
		}
	}
	return nil
}

// expectAck sends data and requires an ACK in response.
func (l *datalink) expectAck(data []byte) error {
	resp, err := l.phy.transfer(data, 1)
	if err != nil {
		return err
	}
	if resp[0] != ackChar {
		return fmt.Errorf("expected ACK, got 0x%02X", resp[0])
	}
	return nil
}
