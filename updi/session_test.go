package updi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/moffa90/go-updi/device"
)

func newTestSession(t *testing.T, name string) (*Session, *fakePhy) {
	t.Helper()
	chip, err := device.Find(name)
	if err != nil {
		t.Fatalf("Find(%q) failed: %v", name, err)
	}
	p := &fakePhy{}
	link := newTestLink(t, p)
	cfg := defaultConfig()
	return &Session{
		app:  &application{link: link, chip: chip, log: cfg.log},
		chip: chip,
		cfg:  cfg,
	}, p
}

func TestProgmodeGuards(t *testing.T) {
	s, _ := newTestSession(t, "tiny817")

	if err := s.ChipErase(); !errors.Is(err, ErrNotInProgmode) {
		t.Errorf("ChipErase error = %v, want ErrNotInProgmode", err)
	}
	if err := s.WriteFlash(0x8000, make([]byte, 64)); !errors.Is(err, ErrNotInProgmode) {
		t.Errorf("WriteFlash error = %v, want ErrNotInProgmode", err)
	}
	if err := s.WriteFuse(1, 0xFF); !errors.Is(err, ErrNotInProgmode) {
		t.Errorf("WriteFuse error = %v, want ErrNotInProgmode", err)
	}
}

func TestLeaveProgmodeNoop(t *testing.T) {
	s, p := newTestSession(t, "tiny817")

	if err := s.LeaveProgmode(); err != nil {
		t.Fatalf("LeaveProgmode failed: %v", err)
	}
	if len(p.sent) != 0 {
		t.Errorf("LeaveProgmode touched the wire: % X", p.sent)
	}
}

func TestFlashAlignment(t *testing.T) {
	s, _ := newTestSession(t, "tiny817")
	s.progmode = true

	if err := s.WriteFlash(0x8000, make([]byte, 63)); err == nil {
		t.Error("partial page write should be rejected")
	}
	if err := s.WriteFlash(0x8001, make([]byte, 64)); err == nil {
		t.Error("unaligned write address should be rejected")
	}
	if err := s.ReadFlash(0x8000, make([]byte, 65)); err == nil {
		t.Error("partial page read should be rejected")
	}
}

func TestWriteFuseFraming(t *testing.T) {
	s, p := newTestSession(t, "tiny817")
	s.progmode = true

	if err := s.WriteFuse(3, 0xAA); err != nil {
		t.Fatalf("WriteFuse failed: %v", err)
	}

	// Fuse 3 of the tiny817 lives at 0x1283. The write goes through the
	// NVM controller address and data registers at 0x1000.
	st := func(addr uint16, value byte) []byte {
		return []byte{syncChar, opSTS | addr16 | data8, byte(addr), byte(addr >> 8), value}
	}
	var want []byte
	want = append(want, st(0x1008, 0x83)...)
	want = append(want, st(0x1009, 0x12)...)
	want = append(want, st(0x1006, 0xAA)...)
	want = append(want, st(0x1000, nvmCmdWriteFuse)...)

	if !bytes.Equal(p.sent, want) {
		t.Errorf("fuse frames =\n% X\nwant\n% X", p.sent, want)
	}
}

func TestReadMemChunking(t *testing.T) {
	s, p := newTestSession(t, "tiny817")
	p.script = append(p.script,
		[]byte{ackChar},             // ST ptr
		make([]byte, maxRepeat+1),   // first block
		[]byte{ackChar},             // ST ptr
		make([]byte, 44),            // remainder
	)

	buf := make([]byte, maxRepeat+1+44)
	if err := s.ReadMem(0x3F00, buf); err != nil {
		t.Fatalf("ReadMem failed: %v", err)
	}

	// Two pointer loads: one per block, the second 256 bytes on.
	first := []byte{syncChar, opST | ptrAddress | data16, 0x00, 0x3F}
	second := []byte{syncChar, opST | ptrAddress | data16, 0x00, 0x40}
	if !bytes.Contains(p.sent, first) {
		t.Errorf("missing first pointer load in % X", p.sent)
	}
	if !bytes.Contains(p.sent, second) {
		t.Errorf("missing second pointer load in % X", p.sent)
	}
}

func TestWriteMemSingleByte(t *testing.T) {
	s, p := newTestSession(t, "tiny817")

	if err := s.WriteMem(0x3E00, []byte{0x5A}); err != nil {
		t.Fatalf("WriteMem failed: %v", err)
	}

	// A one byte write is a plain ST, no pointer or repeat setup.
	want := []byte{syncChar, opSTS | addr16 | data8, 0x00, 0x3E, 0x5A}
	if !bytes.Equal(p.sent, want) {
		t.Errorf("frames = % X, want % X", p.sent, want)
	}
}

func TestDataSpaceBounds(t *testing.T) {
	s, p := newTestSession(t, "tiny817")

	// 0x12000 would silently wrap to 0x2000 on the 16-bit wire format.
	if err := s.ReadMem(0x12000, make([]byte, 4)); err == nil {
		t.Error("ReadMem above the data space should be rejected")
	}
	if err := s.WriteMem(0xFFFE, make([]byte, 4)); err == nil {
		t.Error("WriteMem crossing the data space end should be rejected")
	}

	s.progmode = true
	if err := s.WriteFlash(0x10000, make([]byte, 64)); err == nil {
		t.Error("WriteFlash above the data space should be rejected")
	}
	if err := s.ReadFlash(0x10000, make([]byte, 64)); err == nil {
		t.Error("ReadFlash above the data space should be rejected")
	}

	if len(p.sent) != 0 {
		t.Errorf("rejected transfers touched the wire: % X", p.sent)
	}
}

func TestCloseReleasesPort(t *testing.T) {
	s, p := newTestSession(t, "tiny817")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !p.closed {
		t.Error("Close did not release the transport")
	}
}
