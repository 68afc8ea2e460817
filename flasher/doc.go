// Package flasher provides a high-level API for programming AVR
// microcontrollers over UPDI.
//
// # Overview
//
// This package orchestrates the complete programming sequence:
//   - Querying device identification
//   - Unlocking locked devices (with a chip erase)
//   - Erasing flash
//   - Writing fuses
//   - Programming Intel HEX firmware page by page
//   - Verifying programmed data
//   - Dumping flash contents back to a hex file
//   - Direct reads and writes of arbitrary memory
//
// # Basic Usage
//
// The simplest way to program a device:
//
//	chip, err := device.Find("tiny817")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := updi.Open("/dev/ttyUSB0", 115200, chip)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := flasher.New(sess)
//	err = prog.Run(flasher.Request{
//	    Program: true,
//	    File:    "firmware.hex",
//	})
//
// Run owns the session: it leaves programming mode and closes the serial
// port no matter how the run ends.
//
// # Progress Tracking
//
// Track the run with a callback:
//
//	prog := flasher.New(sess,
//	    flasher.WithProgressCallback(func(p flasher.Phase) {
//	        fmt.Printf("-> %s\n", p)
//	    }),
//	)
//
// # Error Handling
//
// Every failure comes back wrapped in a StageError naming the stage that
// failed. Stages map to distinct process exit codes for scripted callers:
//
//	var stageErr *flasher.StageError
//	if errors.As(err, &stageErr) {
//	    os.Exit(stageErr.Stage.ExitCode())
//	}
//
// Verification failures additionally carry a MismatchError with the first
// differing offset.
//
// # Hardware Independence
//
// The programmer drives the Session interface, not a concrete serial
// connection. *updi.Session satisfies it; tests and simulators can supply
// an in-memory implementation.
package flasher
