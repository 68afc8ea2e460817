package device

import "fmt"

// FlashInfo describes the flash geometry of a target device.
type FlashInfo struct {
	// Start is the flash base address in the unified data space
	Start uint32

	// Size is the flash capacity in bytes
	Size uint32

	// PageSize is the write granularity; programming and verification
	// operate on whole pages
	PageSize uint32
}

// RegInfo holds the base addresses of the peripheral registers the
// programmer touches.
type RegInfo struct {
	SysCfg  uint16
	NVMCtrl uint16
	SigRow  uint16
	Fuses   uint16
	UserRow uint16
}

// Chip ties a device name to its memory layout.
type Chip struct {
	Name  string
	Flash FlashInfo
	Reg   RegInfo
}

// UnsupportedDeviceError indicates that a device name is not in the database.
type UnsupportedDeviceError struct {
	Name string
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("device %q is not supported", e.Name)
}

// The tiny 0/1-series parts share one register map and differ only in
// flash capacity.
var tinyRegs = RegInfo{
	SysCfg:  0x0F00,
	NVMCtrl: 0x1000,
	SigRow:  0x1100,
	Fuses:   0x1280,
	UserRow: 0x1300,
}

var (
	tiny321x = Chip{Name: "tiny321x", Flash: FlashInfo{Start: 0x8000, Size: 32 * 1024, PageSize: 64}, Reg: tinyRegs}
	tiny161x = Chip{Name: "tiny161x", Flash: FlashInfo{Start: 0x8000, Size: 16 * 1024, PageSize: 64}, Reg: tinyRegs}
	tiny81x  = Chip{Name: "tiny81x", Flash: FlashInfo{Start: 0x8000, Size: 8 * 1024, PageSize: 64}, Reg: tinyRegs}
	tiny41x  = Chip{Name: "tiny41x", Flash: FlashInfo{Start: 0x8000, Size: 4 * 1024, PageSize: 64}, Reg: tinyRegs}
)

var chips = map[string]*Chip{
	"tiny3216": &tiny321x,
	"tiny3217": &tiny321x,
	"tiny1616": &tiny161x,
	"tiny1617": &tiny161x,
	"tiny814":  &tiny81x,
	"tiny816":  &tiny81x,
	"tiny817":  &tiny81x,
	"tiny417":  &tiny41x,
}

// Find looks up a device by name.
//
// Example:
//
//	chip, err := device.Find("tiny817")
func Find(name string) (*Chip, error) {
	chip, ok := chips[name]
	if !ok {
		return nil, &UnsupportedDeviceError{Name: name}
	}
	return chip, nil
}

// Names returns the supported device names in unspecified order.
func Names() []string {
	names := make([]string, 0, len(chips))
	for name := range chips {
		names = append(names, name)
	}
	return names
}
