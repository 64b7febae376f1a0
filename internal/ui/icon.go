package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 32

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// iconBytes returns the tray icon: a white ball on a pitch green square.
func iconBytes() []byte {
	iconOnce.Do(func() {
		iconPNG = renderIcon(iconSize)
	})
	return iconPNG
}

func renderIcon(size int) []byte {
	pitch := color.RGBA{R: 0x1e, G: 0x8c, B: 0x3a, A: 0xff}
	ball := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	r := float64(size) * 0.3
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, ball)
			} else {
				img.Set(x, y, pitch)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
