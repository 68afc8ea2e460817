package flasher

import "fmt"

// Stage identifies which step of a programming run failed. Each stage maps
// to a distinct process exit code so scripted callers can tell failures
// apart.
type Stage int

const (
	StageDeviceInfo Stage = iota
	StageUnlock
	StageErase
	StageFuse
	StageFlash
	StageSave
	StageRead
	StageWrite
)

func (s Stage) String() string {
	switch s {
	case StageDeviceInfo:
		return "device info"
	case StageUnlock:
		return "unlock"
	case StageErase:
		return "erase"
	case StageFuse:
		return "fuse"
	case StageFlash:
		return "flash"
	case StageSave:
		return "save"
	case StageRead:
		return "read"
	case StageWrite:
		return "write"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ExitCode returns the process exit code for a failure in this stage.
func (s Stage) ExitCode() int {
	switch s {
	case StageDeviceInfo:
		return 4
	case StageUnlock:
		return 5
	case StageErase:
		return 7
	case StageFuse:
		return 8
	case StageFlash:
		return 9
	case StageSave:
		return 10
	case StageRead:
		return 11
	case StageWrite:
		return 12
	default:
		return 1
	}
}

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MismatchError reports the first byte where flash contents differ from
// the firmware image.
type MismatchError struct {
	Offset   uint32
	Expected byte
	Actual   byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification mismatch at offset 0x%04X: image 0x%02X, flash 0x%02X",
		e.Offset, e.Expected, e.Actual)
}

// FuseSpecError reports a malformed fuse argument.
type FuseSpecError struct {
	Spec   string
	Reason string
}

func (e *FuseSpecError) Error() string {
	return fmt.Sprintf("bad fuse spec %q: %s", e.Spec, e.Reason)
}

// ReadSpecError reports a malformed direct read argument.
type ReadSpecError struct {
	Spec   string
	Reason string
}

func (e *ReadSpecError) Error() string {
	return fmt.Sprintf("bad read spec %q: %s", e.Spec, e.Reason)
}

// WriteSpecError reports a malformed direct write argument.
type WriteSpecError struct {
	Spec   string
	Reason string
}

func (e *WriteSpecError) Error() string {
	return fmt.Sprintf("bad write spec %q: %s", e.Spec, e.Reason)
}
