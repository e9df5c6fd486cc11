// Package compositor abstracts the display service that composes layered
// pixel buffers into the final frame.
package compositor

import (
	"image"
	"image/color"
)

// Mode describes the display the compositor is driving.
type Mode struct {
	Width  int
	Height int
}

// Display owns the screen and composes its layers by ascending z-order.
type Display interface {
	Mode() Mode
	// CreateLayer binds buf and pos into a single on-screen handle. The
	// backing resource and the screen element are created together and only
	// ever released together by Destroy.
	CreateLayer(buf *image.RGBA, pos image.Point, z int) (Layer, error)
	// FillLayer creates a display-sized solid color layer.
	FillLayer(c color.Color, z int) (Layer, error)
	// Begin opens a transaction. Staged changes become visible atomically
	// when Submit returns.
	Begin() Update
	Close() error
}

// Layer is one movable, replaceable on-screen image.
type Layer interface {
	Destroy() error
}

// Update is an atomic batch of layer changes acknowledged synchronously by
// Submit.
type Update interface {
	// Replace swaps the layer's pixel content wholesale, keeping its
	// position. The buffer may have different dimensions.
	Replace(l Layer, buf *image.RGBA)
	// Move changes the layer's screen position.
	Move(l Layer, pos image.Point)
	Submit() error
}

// ColorFromRGBA16 expands a 16-bit RGBA color (4 bits per channel, e.g.
// 0x000F is opaque black) into an 8-bit-per-channel color.
func ColorFromRGBA16(c uint16) color.NRGBA {
	return color.NRGBA{
		R: uint8(c>>12&0xF) * 0x11,
		G: uint8(c>>8&0xF) * 0x11,
		B: uint8(c>>4&0xF) * 0x11,
		A: uint8(c&0xF) * 0x11,
	}
}
