// Package hexfile loads Intel HEX firmware files into page-aligned flash
// images and writes flash dumps back out.
package hexfile

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"

	"github.com/moffa90/go-updi/device"
)

// Image is firmware laid out for page-wise flash programming. Data covers
// the closed range [AddrFrom, AddrTo]; both bounds are page aligned to the
// flash geometry the image was loaded against. Gaps between hex records
// are filled with 0xFF, the erased flash value.
type Image struct {
	// AddrFrom is the first byte address covered, rounded down to a
	// page boundary.
	AddrFrom uint32

	// AddrTo is the last byte address covered; AddrTo+1 is page aligned.
	AddrTo uint32

	// Offset is where the first record byte sits inside the first page.
	Offset uint32

	// Data holds AddrTo-AddrFrom+1 bytes.
	Data []byte
}

// Len returns the padded image size in bytes, always a whole number of
// pages.
func (img *Image) Len() int {
	return len(img.Data)
}

// ParseError wraps an Intel HEX syntax or checksum failure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse hex file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RangeError reports firmware that does not fit in the device flash.
type RangeError struct {
	AddrFrom uint32
	AddrTo   uint32
	FlashEnd uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("image 0x%04X-0x%04X exceeds flash end 0x%04X",
		e.AddrFrom, e.AddrTo, e.FlashEnd)
}

// Load reads an Intel HEX file and lays it out for the given flash
// geometry.
func Load(path string, flash device.FlashInfo) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hex file: %w", err)
	}
	defer f.Close()

	return LoadReader(f, flash)
}

// LoadReader parses Intel HEX records from r and builds a page-aligned
// image. Addresses below the flash mapping are treated as flash offsets
// and translated up by the flash start.
func LoadReader(r io.Reader, flash device.FlashInfo) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, &ParseError{Err: err}
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("no data records")}
	}

	// Span of all record bytes before any alignment.
	lo := segments[0].Address
	hi := segments[0].Address + uint32(len(segments[0].Data)) - 1
	for _, seg := range segments[1:] {
		if seg.Address < lo {
			lo = seg.Address
		}
		if end := seg.Address + uint32(len(seg.Data)) - 1; end > hi {
			hi = end
		}
	}

	mask := flash.PageSize - 1
	addrFrom := lo &^ mask
	addrTo := ((hi + flash.PageSize) &^ mask) - 1
	offset := lo & mask
	base := addrFrom

	// Hex files addressed from zero describe flash offsets; translate
	// them into the data space flash mapping.
	if addrFrom < flash.Start {
		addrFrom += flash.Start
		addrTo += flash.Start
	}
	if addrTo >= flash.Start+flash.Size {
		return nil, &RangeError{
			AddrFrom: addrFrom,
			AddrTo:   addrTo,
			FlashEnd: flash.Start + flash.Size - 1,
		}
	}

	data := make([]byte, addrTo-addrFrom+1)
	for i := range data {
		data[i] = 0xFF
	}
	for _, seg := range segments {
		copy(data[seg.Address-base:], seg.Data)
	}

	return &Image{
		AddrFrom: addrFrom,
		AddrTo:   addrTo,
		Offset:   offset,
		Data:     data,
	}, nil
}

// Save writes the image to path as Intel HEX.
func Save(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create hex file: %w", err)
	}
	if err := Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes the image to w as Intel HEX with 16-byte records.
func Encode(w io.Writer, img *Image) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(img.AddrFrom, img.Data); err != nil {
		return fmt.Errorf("encode hex image: %w", err)
	}
	return mem.DumpIntelHex(w, 16)
}
