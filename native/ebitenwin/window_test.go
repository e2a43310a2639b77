package ebitenwin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termraster/native"
)

var _ native.Window = (*Window)(nil)

func TestLayoutReportsResizeOnce(t *testing.T) {
	w := New("test", 320, 200, nil)

	w.Layout(320, 200)
	w.Layout(640, 480)
	w.Layout(640, 480)

	require.Len(t, w.events, 1)
	assert.Equal(t, native.Event{Kind: native.WindowResized, Width: 640, Height: 480}, <-w.events)

	width, height := w.Size()
	assert.Equal(t, 640, width)
	assert.Equal(t, 480, height)
}

func TestReadPixelsBeforeFrame(t *testing.T) {
	w := New("test", 2, 2, nil)
	_, err := w.ReadPixels(nil)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestReadPixelsCopiesSnapshot(t *testing.T) {
	w := New("test", 1, 1, nil)
	pix := []byte{1, 2, 3, 255}
	w.publish(1, 1, pix)
	pix[0] = 9

	dst := make([]byte, 0, 16)
	buf, err := w.ReadPixels(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 255}, buf.Pix)
	assert.Equal(t, 1, buf.Width)
	assert.Same(t, &dst[:1][0], &buf.Pix[0], "capacity is reused")
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	w := New("test", 1, 1, nil)
	for i := 0; i < eventBuffer+4; i++ {
		w.send(native.Event{Kind: native.Draw})
	}
	assert.Len(t, w.events, eventBuffer)

	w.closeEvents()
	w.closeEvents()
	assert.NotPanics(t, func() { w.send(native.Event{Kind: native.Quit}) })
}

func TestSetSizeIgnoresEmpty(t *testing.T) {
	w := New("test", 1, 1, nil)
	w.SetSize(0, 10)
	assert.Nil(t, w.resize)
	w.SetSize(10, 20)
	assert.Equal(t, &[2]int{10, 20}, w.resize)
}

func TestBackdropIsOpaqueAndMoves(t *testing.T) {
	_, _, _, a := backdrop(0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.NotEqual(t, backdrop(0), backdrop(120))
	assert.Equal(t, backdrop(0), backdrop(720), "hue wraps at 360 degrees")
}
