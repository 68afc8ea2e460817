package device

import (
	"errors"
	"testing"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name      string
		device    string
		wantSize  uint32
		wantErr   bool
	}{
		{name: "tiny817", device: "tiny817", wantSize: 8 * 1024},
		{name: "tiny3216", device: "tiny3216", wantSize: 32 * 1024},
		{name: "tiny417", device: "tiny417", wantSize: 4 * 1024},
		{name: "unknown device", device: "mega4809", wantErr: true},
		{name: "empty name", device: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, err := Find(tt.device)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var unsupported *UnsupportedDeviceError
				if !errors.As(err, &unsupported) {
					t.Errorf("error type = %T, want *UnsupportedDeviceError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chip.Flash.Size != tt.wantSize {
				t.Errorf("Flash.Size = %d, want %d", chip.Flash.Size, tt.wantSize)
			}
			if chip.Flash.Start != 0x8000 {
				t.Errorf("Flash.Start = 0x%04X, want 0x8000", chip.Flash.Start)
			}
			if chip.Flash.PageSize != 64 {
				t.Errorf("Flash.PageSize = %d, want 64", chip.Flash.PageSize)
			}
			if chip.Reg.Fuses != 0x1280 {
				t.Errorf("Reg.Fuses = 0x%04X, want 0x1280", chip.Reg.Fuses)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 8 {
		t.Fatalf("len(Names()) = %d, want 8", len(names))
	}
	for _, name := range names {
		if _, err := Find(name); err != nil {
			t.Errorf("Find(%q) failed: %v", name, err)
		}
	}
}
