package terminal

// Backend abstracts platform-specific terminal operations so the sink and the
// input reader can be driven by a fake in tests.
type Backend interface {
	// Init switches the input side to raw mode
	Init() error
	// Fini restores the mode saved by Init. Safe to call once after Init
	Fini()

	// Size returns the current grid dimensions in columns and rows
	Size() (cols, rows int)

	// Write writes raw bytes to the terminal output
	Write(p []byte) (int, error)

	// Read blocks until input is available, the stop channel is closed, or an error occurs.
	// A nil slice with nil error means timeout or stop
	Read(stopCh <-chan struct{}) ([]byte, error)
}
