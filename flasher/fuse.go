package flasher

import (
	"strconv"
	"strings"
)

// writeFuse parses one "index:value" spec and programs the fuse.
func (p *Programmer) writeFuse(spec string) error {
	index, value, err := parseFuseSpec(spec)
	if err != nil {
		return err
	}

	p.cfg.log.Infof("writing fuse %d = 0x%02X", index, value)
	return p.sess.WriteFuse(index, value)
}

// parseFuseSpec splits a fuse argument of the form "index:value". The
// index is decimal, the value hex with or without a 0x prefix.
func parseFuseSpec(spec string) (int, byte, error) {
	tokens := strings.Split(spec, ":")
	if len(tokens) != 2 {
		return 0, 0, &FuseSpecError{Spec: spec, Reason: "want exactly one ':'"}
	}

	index, err := strconv.ParseUint(tokens[0], 10, 8)
	if err != nil {
		return 0, 0, &FuseSpecError{Spec: spec, Reason: "bad fuse index"}
	}

	value, err := parseHexByte(tokens[1])
	if err != nil {
		return 0, 0, &FuseSpecError{Spec: spec, Reason: "bad fuse value"}
	}

	return int(index), value, nil
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func parseHexUint32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
