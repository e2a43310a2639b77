package terminal

// Pre-allocated ANSI sequence fragments (avoid allocations during frame writes)
var (
	csiClear = []byte("\x1b[2J\x1b[H")
	csiHome  = []byte("\x1b[H")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)
	csiSGR0  = []byte("\x1b[0m")

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	// DECAWM stays on while drawing: frames rely on natural wrap at the right edge
	csiAutoWrapOn = []byte("\x1b[?7h")

	// Mouse reporting: 1000 click, 1002 drag, 1003 any motion, 1006 SGR encoding
	csiMouseClickOn   = []byte("\x1b[?1000h")
	csiMouseClickOff  = []byte("\x1b[?1000l")
	csiMouseDragOn    = []byte("\x1b[?1002h")
	csiMouseDragOff   = []byte("\x1b[?1002l")
	csiMouseMotionOn  = []byte("\x1b[?1003h")
	csiMouseMotionOff = []byte("\x1b[?1003l")
	csiMouseSGROn     = []byte("\x1b[?1006h")
	csiMouseSGROff    = []byte("\x1b[?1006l")

	// Color prefixes
	csiFg256     = "\x1b[38;5;" // followed by N m
	csiBg256     = "\x1b[48;5;" // followed by N m
	csiDefaultFg = "\x1b[39m"
)

// AppendBg256 appends the SGR sequence selecting palette index idx as background
func AppendBg256(dst []byte, idx uint8) []byte {
	dst = append(dst, csiBg256...)
	dst = appendUint8(dst, idx)
	return append(dst, 'm')
}

// AppendFg256 appends the SGR sequence selecting palette index idx as foreground
func AppendFg256(dst []byte, idx uint8) []byte {
	dst = append(dst, csiFg256...)
	dst = appendUint8(dst, idx)
	return append(dst, 'm')
}

// AppendFgReset appends the default-foreground sequence
func AppendFgReset(dst []byte) []byte {
	return append(dst, csiDefaultFg...)
}

// AppendReset appends SGR 0
func AppendReset(dst []byte) []byte {
	return append(dst, csiSGR0...)
}

// appendUint8 writes a palette index without allocation
func appendUint8(dst []byte, n uint8) []byte {
	if n < 10 {
		return append(dst, n+'0')
	}
	if n < 100 {
		return append(dst, n/10+'0', n%10+'0')
	}
	return append(dst, n/100+'0', n/10%10+'0', n%10+'0')
}
