package rimage

import (
	"github.com/lucasb-eyer/go-colorful"
)

// hue of the nearest and farthest depths, in degrees
const (
	nearHue = 0
	farHue  = 240
)

// ColorizeDepth renders a depth map for display using a cumulative histogram, so that colors are
// spread evenly over the depths actually present in the frame. Hue runs from red (near) through
// yellow, green and cyan to blue (far); pixels without depth are black.
func ColorizeDepth(dm *DepthMap) *RGBBuffer {
	out := NewRGBBuffer(dm.Width(), dm.Height())

	histogram := make([]int, int(MaxDepth)+1)
	for _, z := range dm.data {
		histogram[z]++
	}
	// cumulative, skipping the "no data" bucket
	for i := 2; i < len(histogram); i++ {
		histogram[i] += histogram[i-1]
	}
	total := histogram[len(histogram)-1]
	if total <= 0 {
		return out
	}

	for i, z := range dm.data {
		if z == 0 {
			continue
		}
		t := float64(histogram[z]) / float64(total)
		r, g, b := colorful.Hsv(nearHue+t*(farHue-nearHue), 1, 1).Clamped().RGB255()
		j := i * 3
		out.pix[j], out.pix[j+1], out.pix[j+2] = r, g, b
	}
	return out
}
