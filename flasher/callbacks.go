package flasher

// Phase names the step a programming run is currently in. Passed to
// ProgressCallback as each step starts.
type Phase string

const (
	PhaseDeviceInfo Phase = "device info"
	PhaseUnlock     Phase = "unlock"
	PhaseErase      Phase = "erase"
	PhaseFuse       Phase = "fuse"
	PhaseProgram    Phase = "program"
	PhaseVerify     Phase = "verify"
	PhaseSave       Phase = "save"
	PhaseRead       Phase = "read"
	PhaseWrite      Phase = "write"
	PhaseComplete   Phase = "complete"
)

// ProgressCallback is called as each phase of a run starts, and once with
// PhaseComplete when the run succeeds. Implementations should return
// quickly.
type ProgressCallback func(Phase)

// DataCallback receives memory contents produced by read operations,
// together with the device address they came from.
type DataCallback func(address uint32, data []byte)
