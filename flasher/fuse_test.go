package flasher

import (
	"errors"
	"testing"
)

func TestParseFuseSpec(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantIndex int
		wantValue byte
		wantErr   bool
	}{
		{name: "prefixed value", spec: "3:0xaa", wantIndex: 3, wantValue: 0xAA},
		{name: "bare value", spec: "3:AA", wantIndex: 3, wantValue: 0xAA},
		{name: "zero fuse", spec: "0:00", wantIndex: 0, wantValue: 0x00},
		{name: "upper prefix", spec: "8:0XFF", wantIndex: 8, wantValue: 0xFF},
		{name: "no separator", spec: "3", wantErr: true},
		{name: "extra separator", spec: "3:aa:bb", wantErr: true},
		{name: "bad index", spec: "x:aa", wantErr: true},
		{name: "negative index", spec: "-1:aa", wantErr: true},
		{name: "index overflow", spec: "300:aa", wantErr: true},
		{name: "bad value", spec: "3:zz", wantErr: true},
		{name: "value overflow", spec: "3:1ff", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, value, err := parseFuseSpec(tt.spec)

			if tt.wantErr {
				var specErr *FuseSpecError
				if !errors.As(err, &specErr) {
					t.Fatalf("error = %v, want *FuseSpecError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if index != tt.wantIndex || value != tt.wantValue {
				t.Errorf("got (%d, 0x%02X), want (%d, 0x%02X)",
					index, value, tt.wantIndex, tt.wantValue)
			}
		})
	}
}
