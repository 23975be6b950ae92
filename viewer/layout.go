package viewer

import "image"

// Layout splits a window of w x h into the color, aligned color and depth viewports: color in the
// top left, aligned color in the top right and depth in the bottom right. Coordinates have their
// origin in the top left corner.
func Layout(w, h int) [3]image.Rectangle {
	s := w / 2
	vh := h - h/2
	return [3]image.Rectangle{
		image.Rect(0, 0, s, vh),
		image.Rect(s, 0, s+s, vh),
		image.Rect(s, h/2, s+s, h/2+vh),
	}
}

// Fit returns the largest rectangle with the aspect ratio of a width x height image that fits
// inside r, centered in it.
func Fit(r image.Rectangle, width, height int) image.Rectangle {
	if width <= 0 || height <= 0 || r.Empty() {
		return image.Rectangle{Min: r.Min, Max: r.Min}
	}
	rw, rh := float64(r.Dx()), float64(r.Dy())
	h := rh
	w := rh * float64(width) / float64(height)
	if w > rw {
		scale := rw / w
		w *= scale
		h *= scale
	}
	x := r.Min.X + int((rw-w)/2)
	y := r.Min.Y + int((rh-h)/2)
	return image.Rect(x, y, x+int(w), y+int(h))
}
