package flasher

import (
	"strconv"
	"strings"
)

const (
	// maxReadLen caps a direct read at what a single REPEAT block can
	// transfer minus the sync overhead.
	maxReadLen = 255

	// writeWindow is how many bytes a direct write transfers and reads
	// back at a time.
	writeWindow = 16
)

// directRead parses an "address;length" spec, reads the memory and hands
// the contents to the data callback.
func (p *Programmer) directRead(spec string) error {
	tokens := strings.Split(spec, ";")
	if len(tokens) != 2 {
		return &ReadSpecError{Spec: spec, Reason: "want address;length"}
	}

	address, err := parseHexUint32(tokens[0])
	if err != nil {
		return &ReadSpecError{Spec: spec, Reason: "bad address"}
	}
	length, err := strconv.ParseUint(tokens[1], 10, 32)
	if err != nil || length == 0 {
		return &ReadSpecError{Spec: spec, Reason: "bad length"}
	}
	if length > maxReadLen {
		p.cfg.log.Warnf("read length %d clamped to %d", length, maxReadLen)
		length = maxReadLen
	}

	buf := make([]byte, length)
	if err := p.sess.ReadMem(address, buf); err != nil {
		return err
	}

	p.reportData(address, buf)
	return nil
}

// directWrite parses an "address;byte;byte;..." spec, writes the bytes in
// small windows and reads each window back for inspection. All tokens are
// parsed before the first write so a bad byte never leaves the device
// half written.
func (p *Programmer) directWrite(spec string) error {
	tokens := strings.Split(spec, ";")
	if len(tokens) < 2 {
		return &WriteSpecError{Spec: spec, Reason: "want address;byte[;byte...]"}
	}

	address, err := parseHexUint32(tokens[0])
	if err != nil {
		return &WriteSpecError{Spec: spec, Reason: "bad address"}
	}

	data := make([]byte, len(tokens)-1)
	for i, tok := range tokens[1:] {
		b, err := parseHexByte(tok)
		if err != nil {
			return &WriteSpecError{Spec: spec, Reason: "bad byte " + strconv.Itoa(i)}
		}
		data[i] = b
	}

	p.cfg.log.Infof("writing %d bytes at 0x%04X", len(data), address)
	for windowStart := 0; windowStart < len(data); windowStart += writeWindow {
		end := windowStart + writeWindow
		if end > len(data) {
			end = len(data)
		}
		addr := address + uint32(windowStart)
		if err := p.sess.WriteMem(addr, data[windowStart:end]); err != nil {
			return err
		}
	}

	// Read everything back in the same windows for inspection.
	for windowStart := 0; windowStart < len(data); windowStart += writeWindow {
		end := windowStart + writeWindow
		if end > len(data) {
			end = len(data)
		}
		addr := address + uint32(windowStart)
		buf := make([]byte, end-windowStart)
		if err := p.sess.ReadMem(addr, buf); err != nil {
			return err
		}
		p.reportData(addr, buf)
	}

	return nil
}
