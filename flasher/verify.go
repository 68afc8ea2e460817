package flasher

import "github.com/moffa90/go-updi/hexfile"

// verify reads back the flash range the image covers and compares it byte
// by byte. The first difference is reported as a MismatchError with the
// offset into the image.
func (p *Programmer) verify(img *hexfile.Image) error {
	actual := make([]byte, img.Len())
	if err := p.sess.ReadFlash(img.AddrFrom, actual); err != nil {
		return err
	}

	for i := range actual {
		if actual[i] != img.Data[i] {
			return &MismatchError{
				Offset:   uint32(i),
				Expected: img.Data[i],
				Actual:   actual[i],
			}
		}
	}

	p.cfg.log.Infof("flash matches image, %d bytes checked", img.Len())
	return nil
}
