package flasher

import (
	"bytes"
	"errors"
	"testing"
)

type dataReport struct {
	address uint32
	data    []byte
}

func newMemProgrammer(sess Session) (*Programmer, *[]dataReport) {
	reports := &[]dataReport{}
	prog := New(sess, WithDataCallback(func(address uint32, data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		*reports = append(*reports, dataReport{address: address, data: cp})
	}))
	return prog, reports
}

func TestDirectRead(t *testing.T) {
	sess := newMockSession()
	sess.mem[0x1000] = 0xDE
	sess.mem[0x1001] = 0xAD

	prog, reports := newMemProgrammer(sess)
	if err := prog.Run(Request{Read: "1000;2"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(*reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(*reports))
	}
	r := (*reports)[0]
	if r.address != 0x1000 {
		t.Errorf("address = 0x%04X, want 0x1000", r.address)
	}
	if !bytes.Equal(r.data, []byte{0xDE, 0xAD}) {
		t.Errorf("data = % X", r.data)
	}
}

func TestDirectReadClamp(t *testing.T) {
	sess := newMockSession()

	prog, reports := newMemProgrammer(sess)
	if err := prog.Run(Request{Read: "1000;300"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(*reports) != 1 || len((*reports)[0].data) != maxReadLen {
		t.Fatalf("read %d bytes, want clamp to %d", len((*reports)[0].data), maxReadLen)
	}
}

func TestDirectReadBadSpec(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "no separator", spec: "1000"},
		{name: "too many fields", spec: "1000;2;3"},
		{name: "bad address", spec: "zz;2"},
		{name: "bad length", spec: "1000;xx"},
		{name: "zero length", spec: "1000;0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newMockSession()
			prog, _ := newMemProgrammer(sess)
			err := prog.Run(Request{Read: tt.spec})

			var specErr *ReadSpecError
			if !errors.As(err, &specErr) {
				t.Fatalf("error = %v, want *ReadSpecError", err)
			}
			var stageErr *StageError
			if !errors.As(err, &stageErr) || stageErr.Stage.ExitCode() != 11 {
				t.Errorf("error = %v, want read stage exit 11", err)
			}
		})
	}
}

func TestDirectWriteWindows(t *testing.T) {
	sess := newMockSession()

	// 17 bytes: one full window plus a 1-byte tail.
	spec := "2000"
	want := make([]byte, 17)
	for i := range want {
		want[i] = byte(i + 1)
		spec += ";" + hexStr(want[i])
	}

	prog, reports := newMemProgrammer(sess)
	if err := prog.Run(Request{Write: spec}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, b := range want {
		if got := sess.mem[0x2000+uint32(i)]; got != b {
			t.Fatalf("mem[0x%04X] = 0x%02X, want 0x%02X", 0x2000+i, got, b)
		}
	}

	if len(*reports) != 2 {
		t.Fatalf("readback reports = %d, want 2", len(*reports))
	}
	first, second := (*reports)[0], (*reports)[1]
	if first.address != 0x2000 || len(first.data) != 16 {
		t.Errorf("first readback at 0x%04X len %d, want 0x2000 len 16", first.address, len(first.data))
	}
	if second.address != 0x2010 || len(second.data) != 1 {
		t.Errorf("second readback at 0x%04X len %d, want 0x2010 len 1", second.address, len(second.data))
	}
	if !bytes.Equal(first.data, want[:16]) || second.data[0] != want[16] {
		t.Error("readback contents differ from written data")
	}
}

func TestDirectWriteBadByte(t *testing.T) {
	sess := newMockSession()

	prog, _ := newMemProgrammer(sess)
	err := prog.Run(Request{Write: "2000;aa;zz;bb"})

	var specErr *WriteSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("error = %v, want *WriteSpecError", err)
	}
	// Parsing rejects the spec before anything reaches the device.
	if len(sess.mem) != 0 {
		t.Errorf("device written despite bad spec: %v", sess.mem)
	}
}

func TestDirectWriteNoData(t *testing.T) {
	sess := newMockSession()
	prog, _ := newMemProgrammer(sess)

	err := prog.Run(Request{Write: "2000"})
	var specErr *WriteSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("error = %v, want *WriteSpecError", err)
	}
}

func hexStr(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
