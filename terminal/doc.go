// Package terminal provides direct ANSI terminal control for raster frame output.
//
// Features:
//   - Exact nearest-color mapping onto the xterm 256-color palette
//   - Allocation-free SGR fragment appenders for frame encoding
//   - Raw stdin input parsing with SGR mouse reports (1-based cells)
//   - Alternate screen sink with full-frame writes and clean restoration on exit/panic
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
