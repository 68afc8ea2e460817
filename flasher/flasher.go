package flasher

import "github.com/moffa90/go-updi/hexfile"

// Programmer orchestrates a complete programming run against one device
// session: identification, unlock, erase, fuses, flash programming with
// verification, flash dumps and direct memory access, in that order.
type Programmer struct {
	sess Session
	cfg  *config
}

// Request selects the operations of one programming run. Zero values mean
// the operation is skipped.
type Request struct {
	// Unlock requests programming mode entry even when no other
	// mutating operation is selected. A locked device is recovered with
	// a chip erase; an unlocked device keeps its contents.
	Unlock bool

	// Erase performs a chip erase.
	Erase bool

	// Program writes File to flash and verifies it.
	Program bool

	// Check verifies flash contents against File without writing.
	Check bool

	// Save dumps the flash to File with a ".save" suffix appended.
	Save bool

	// File is the Intel HEX firmware path for Program, Check and Save.
	File string

	// Fuses holds fuse specs of the form "index:value", value in hex.
	Fuses []string

	// Read is a direct memory read spec of the form "address;length".
	Read string

	// Write is a direct memory write spec of the form
	// "address;byte;byte;...".
	Write string
}

// needsProgmode reports whether the run mutates flash and therefore has
// to enter programming mode up front.
func (r Request) needsProgmode() bool {
	return r.Unlock || r.Erase || r.Program
}

// New creates a Programmer driving the given session.
//
// Panics if sess is nil.
func New(sess Session, opts ...Option) *Programmer {
	if sess == nil {
		panic("flasher: session cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Programmer{sess: sess, cfg: cfg}
}

// Run executes the requested operations in a fixed order. The first
// failure aborts the run and is returned wrapped in a StageError naming
// the stage. The session always leaves programming mode and is closed
// before Run returns.
func (p *Programmer) Run(req Request) error {
	defer func() {
		if err := p.sess.LeaveProgmode(); err != nil {
			p.cfg.log.WithError(err).Error("leaving programming mode")
		}
		if err := p.sess.Close(); err != nil {
			p.cfg.log.WithError(err).Error("closing session")
		}
	}()

	p.reportProgress(PhaseDeviceInfo)
	if err := p.sess.DeviceInfo(); err != nil {
		return &StageError{Stage: StageDeviceInfo, Err: err}
	}

	if req.needsProgmode() {
		if err := p.enterProgmode(); err != nil {
			return &StageError{Stage: StageUnlock, Err: err}
		}
	}

	if req.Erase {
		p.reportProgress(PhaseErase)
		p.cfg.log.Info("erasing chip")
		if err := p.sess.ChipErase(); err != nil {
			return &StageError{Stage: StageErase, Err: err}
		}
	}

	if len(req.Fuses) > 0 {
		p.reportProgress(PhaseFuse)
		for _, spec := range req.Fuses {
			if err := p.writeFuse(spec); err != nil {
				return &StageError{Stage: StageFuse, Err: err}
			}
		}
	}

	if req.Program || req.Check {
		if err := p.flash(req.File, req.Program); err != nil {
			return &StageError{Stage: StageFlash, Err: err}
		}
	}

	if req.Save {
		p.reportProgress(PhaseSave)
		if err := p.save(req.File); err != nil {
			return &StageError{Stage: StageSave, Err: err}
		}
	}

	if req.Read != "" {
		p.reportProgress(PhaseRead)
		if err := p.directRead(req.Read); err != nil {
			return &StageError{Stage: StageRead, Err: err}
		}
	}

	if req.Write != "" {
		p.reportProgress(PhaseWrite)
		if err := p.directWrite(req.Write); err != nil {
			return &StageError{Stage: StageWrite, Err: err}
		}
	}

	p.reportProgress(PhaseComplete)
	return nil
}

// enterProgmode brings the device into programming mode. Entry is always
// attempted first; only when it fails does the unlock-with-chip-erase
// recovery run, so an already-unlocked device keeps its NVM contents.
func (p *Programmer) enterProgmode() error {
	p.reportProgress(PhaseUnlock)

	if err := p.sess.EnterProgmode(); err != nil {
		p.cfg.log.WithError(err).Info("device locked, unlocking with chip erase")
		if err := p.sess.Unlock(); err != nil {
			return err
		}
	}

	// Programming mode exposes the signature row; query it now.
	return p.sess.DeviceInfo()
}

// flash loads the firmware image, optionally erases and programs the
// covered pages, and always verifies flash against the image.
func (p *Programmer) flash(path string, program bool) error {
	flash, err := p.sess.FlashInfo()
	if err != nil {
		return err
	}

	img, err := hexfile.Load(path, flash)
	if err != nil {
		return err
	}
	p.cfg.log.Infof("firmware covers 0x%04X-0x%04X (%d bytes)", img.AddrFrom, img.AddrTo, img.Len())

	if program {
		p.reportProgress(PhaseErase)
		p.cfg.log.Info("erasing chip before programming")
		if err := p.sess.ChipErase(); err != nil {
			return err
		}

		p.reportProgress(PhaseProgram)
		p.cfg.log.Info("programming flash")
		if err := p.sess.WriteFlash(img.AddrFrom, img.Data); err != nil {
			return err
		}
	}

	p.reportProgress(PhaseVerify)
	p.cfg.log.Info("verifying flash")
	return p.verify(img)
}

// saveSuffix is appended to the firmware path for flash dumps so a dump
// never overwrites the input file.
const saveSuffix = ".save"

// save reads the whole flash and writes it out as Intel HEX addressed
// from zero.
func (p *Programmer) save(path string) error {
	flash, err := p.sess.FlashInfo()
	if err != nil {
		return err
	}

	dump := make([]byte, flash.Size)
	if err := p.sess.ReadFlash(flash.Start, dump); err != nil {
		return err
	}

	// The dump is addressed from zero so it can be loaded back as a
	// plain firmware file.
	img := &hexfile.Image{AddrFrom: 0, AddrTo: flash.Size - 1, Data: dump}
	out := path + saveSuffix
	p.cfg.log.Infof("saving flash contents to %s", out)
	return hexfile.Save(out, img)
}

func (p *Programmer) reportProgress(phase Phase) {
	if p.cfg.progress != nil {
		p.cfg.progress(phase)
	}
}

func (p *Programmer) reportData(address uint32, data []byte) {
	if p.cfg.data != nil {
		p.cfg.data(address, data)
	}
}
