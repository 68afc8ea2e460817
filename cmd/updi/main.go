// Command updi programs AVR microcontrollers over UPDI through a TTL
// serial adapter.
package main

import (
	"errors"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-updi/device"
	"github.com/moffa90/go-updi/flasher"
	"github.com/moffa90/go-updi/updi"
)

// Exit codes for failures before the programming run starts. Stage
// failures map to their own codes, see flasher.Stage.
const (
	exitUsage      = 1
	exitBadDevice  = 2
	exitOpenFailed = 3
)

var cli struct {
	Device   string   `short:"d" required:"" help:"Target device type (e.g. tiny817)."`
	Comport  string   `short:"c" required:"" help:"Serial port the UPDI adapter is on."`
	Baudrate int      `short:"b" default:"115200" help:"Serial baud rate."`
	File     string   `short:"f" help:"Intel HEX firmware file (base name of the dump for --save)."`
	Unlock   bool     `short:"u" help:"Unlock a locked device (erases all NVM contents)."`
	Erase    bool     `short:"e" help:"Perform a chip erase."`
	Program  bool     `short:"p" help:"Program the firmware file to flash."`
	Check    bool     `short:"k" help:"Verify flash against the firmware file without writing."`
	Save     bool     `short:"s" help:"Dump flash contents to the firmware path plus .save."`
	Fuses    []string `help:"Write fuses, spec index:value with value in hex (repeatable)."`
	Read     string   `short:"r" help:"Direct memory read, spec address;length (address hex, length decimal)."`
	Write    string   `short:"w" help:"Direct memory write, spec address;byte;byte;... (all hex)."`
	Verbose  int      `short:"v" default:"1" help:"Log level: 0 quiet, 1 info, 2 debug, 3 trace."`
}

func logLevel(verbose int) logrus.Level {
	switch {
	case verbose <= 0:
		return logrus.ErrorLevel
	case verbose == 1:
		return logrus.InfoLevel
	case verbose == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("updi"),
		kong.Description("UPDI device programmer for AVR microcontrollers."),
		kong.UsageOnError())

	// A firmware file with no action selected means program it.
	if cli.File != "" && !cli.Program && !cli.Check && !cli.Save {
		cli.Program = true
	}
	if (cli.Program || cli.Check || cli.Save) && cli.File == "" {
		ctx.Fatalf("--file is required with --program, --check or --save")
	}

	log := logrus.New()
	log.SetLevel(logLevel(cli.Verbose))

	chip, err := device.Find(cli.Device)
	if err != nil {
		log.Error(err)
		log.Errorf("supported devices: %s", strings.Join(device.Names(), ", "))
		os.Exit(exitBadDevice)
	}

	sess, err := updi.Open(cli.Comport, cli.Baudrate, chip, updi.WithLogger(log))
	if err != nil {
		log.WithError(err).Errorf("opening UPDI link on %s", cli.Comport)
		os.Exit(exitOpenFailed)
	}

	prog := flasher.New(sess,
		flasher.WithLogger(log),
		flasher.WithProgressCallback(func(p flasher.Phase) {
			log.Infof("stage: %s", p)
		}))

	err = prog.Run(flasher.Request{
		Unlock:  cli.Unlock,
		Erase:   cli.Erase,
		Program: cli.Program,
		Check:   cli.Check,
		Save:    cli.Save,
		File:    cli.File,
		Fuses:   cli.Fuses,
		Read:    cli.Read,
		Write:   cli.Write,
	})
	if err != nil {
		color.Red("updi: %v", err)
		var stageErr *flasher.StageError
		if errors.As(err, &stageErr) {
			os.Exit(stageErr.Stage.ExitCode())
		}
		os.Exit(exitUsage)
	}

	color.Green("updi: done")
}
