package updi

import (
	"errors"
	"fmt"
	"time"

	"github.com/pkg/term"
	"github.com/pkg/term/termios"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// phy is the transport the datalink layer runs on. serialPhy talks to real
// hardware; tests substitute a scripted fake.
type phy interface {
	send(data []byte) error
	receive(buf []byte) error
	transfer(tx []byte, rlen int) ([]byte, error)
	Close() error
}

var errReadTimeout = errors.New("updi: serial read timed out")

// serialPhy drives the single-wire UPDI transport through a TTL serial
// adapter. TX and RX share the wire, so every transmitted byte echoes back
// and is verified against what was sent.
type serialPhy struct {
	port  *term.Term
	baud  int
	ibdly time.Duration
	log   logrus.FieldLogger
}

func openSerialPhy(port string, baud int, log logrus.FieldLogger) (*serialPhy, error) {
	t, err := term.Open(port,
		term.RawMode,
		term.Speed(baud),
		term.ReadTimeout(500*time.Millisecond),
		term.SetAttr(func(attr *unix.Termios) uintptr {
			// UPDI frames are 8 data bits, even parity, 2 stop bits.
			attr.Cflag |= unix.PARENB | unix.CSTOPB
			return termios.TCSAFLUSH
		}))
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}

	p := &serialPhy{port: t, baud: baud, ibdly: time.Millisecond, log: log}

	// An initial double break pushes the UPDI state machine into a known
	// state before the first instruction.
	if err := p.sendDoubleBreak(); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("double break handshake: %w", err)
	}

	return p, nil
}

// sendDoubleBreak resets the UPDI port. A break is just a slow zero frame:
// at 300 baud the line is held low for 30ms, slightly above the required
// 24.6ms.
func (p *serialPhy) sendDoubleBreak() error {
	p.log.Debug("sending double break")

	if err := p.port.SetSpeed(300); err != nil {
		return fmt.Errorf("set break speed: %w", err)
	}
	if err := p.send([]byte{breakChar, breakChar}); err != nil {
		return err
	}
	if err := p.port.SetSpeed(p.baud); err != nil {
		return fmt.Errorf("restore speed: %w", err)
	}
	return nil
}

// send transmits data byte by byte, verifying each byte against its echo.
func (p *serialPhy) send(data []byte) error {
	if err := p.port.Flush(); err != nil {
		p.log.WithError(err).Debug("flush before send")
	}

	echo := make([]byte, 1)
	for i, b := range data {
		if _, err := p.port.Write([]byte{b}); err != nil {
			return fmt.Errorf("send byte %d: %w", i, err)
		}
		if err := p.readFull(echo); err != nil {
			return fmt.Errorf("echo of byte %d: %w", i, err)
		}
		if echo[0] != b {
			return fmt.Errorf("echo mismatch at byte %d: sent 0x%02X, got 0x%02X", i, b, echo[0])
		}
		time.Sleep(p.ibdly)
	}
	return nil
}

func (p *serialPhy) receive(buf []byte) error {
	return p.readFull(buf)
}

func (p *serialPhy) transfer(tx []byte, rlen int) ([]byte, error) {
	if err := p.send(tx); err != nil {
		return nil, err
	}
	buf := make([]byte, rlen)
	if err := p.receive(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *serialPhy) readFull(buf []byte) error {
	n := 0
	retries := 3
	for n < len(buf) {
		m, err := p.port.Read(buf[n:])
		n += m
		if m > 0 {
			continue
		}
		if retries == 0 {
			if err == nil {
				err = errReadTimeout
			}
			return fmt.Errorf("read %d/%d bytes: %w", n, len(buf), err)
		}
		retries--
	}
	return nil
}

func (p *serialPhy) Close() error {
	return p.port.Close()
}
