// Package updi implements the UPDI (Unified Program and Debug Interface)
// host side for programming AVR microcontrollers over a TTL serial adapter.
//
// # Protocol Overview
//
// UPDI is a single-wire interface. The host serial port runs 8 data bits,
// even parity, 2 stop bits, with TX and RX tied to the same wire, so every
// transmitted byte echoes back and is verified. Instructions are framed
// with a SYNC character (0x55); stores are acknowledged with ACK (0x40).
//
// The package is layered the way the on-chip interface is:
//
//   - physical: serial port setup, break handshake, echo-verified sends
//   - datalink: instruction framing (LDS/STS, LD/ST, LDCS/STCS, REPEAT, KEY)
//   - application: NVM controller procedures (keys, reset, page writes)
//   - Session: the public API
//
// # Basic Usage
//
//	chip, err := device.Find("tiny817")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := updi.Open("/dev/ttyUSB0", 115200, chip)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	if err := sess.EnterProgmode(); err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.LeaveProgmode()
//
//	data := make([]byte, chip.Flash.PageSize)
//	err = sess.ReadFlash(chip.Flash.Start, data)
//
// # Locked Devices
//
// EnterProgmode fails on a locked device. Unlock erases the device with
// the chip-erase key and then enters programming mode:
//
//	if err := sess.EnterProgmode(); err != nil {
//	    err = sess.Unlock() // erases all NVM contents
//	}
//
// # Logging
//
// The session is silent by default. Pass a logrus logger to see the
// protocol traffic and programming progress:
//
//	log := logrus.New()
//	log.SetLevel(logrus.DebugLevel)
//	sess, err := updi.Open(port, baud, chip, updi.WithLogger(log))
package updi
