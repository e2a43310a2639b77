package app

import (
	"fmt"

	"github.com/muesli/termenv"

	"github.com/lixenwraith/termraster/render"
)

// FrameWriter accepts encoded frame text; terminal.Sink implements it
type FrameWriter interface {
	WriteFrame(text []byte) error
}

// ANSIOutput encodes frames as escape text for a FrameWriter
type ANSIOutput struct {
	w    FrameWriter
	text []byte
}

// NewANSIOutput wraps w
func NewANSIOutput(w FrameWriter) *ANSIOutput {
	return &ANSIOutput{w: w}
}

// Present encodes f into a reused buffer and writes it
func (o *ANSIOutput) Present(f *render.Frame) error {
	o.text = f.AppendText(o.text[:0])
	return o.w.WriteFrame(o.text)
}

// ColorWarning describes a terminal that cannot show the 256-color palette;
// it is empty when the profile is sufficient
func ColorWarning(p termenv.Profile) string {
	var name string
	switch p {
	case termenv.TrueColor, termenv.ANSI256:
		return ""
	case termenv.ANSI:
		name = "16 colors"
	case termenv.Ascii:
		name = "no color"
	default:
		name = fmt.Sprintf("profile %d", int(p))
	}
	return fmt.Sprintf("terminal reports %s; frames use the 256-color palette and may render incorrectly", name)
}
